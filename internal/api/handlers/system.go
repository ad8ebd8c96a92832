package handlers

import (
	"net/http"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/api/response"
	"github.com/ndewijer/wealth-tracker/internal/service"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Health checks the health of the system and database connectivity
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.systemService.CheckHealth(r.Context()); err != nil {
		response.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		})
		return
	}

	response.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Database: "connected",
	})
}

// Version handles GET requests to retrieve the application and schema version.
//
// Endpoint: GET /api/system/version
// Response: 200 OK with model.VersionInfo
// Error: 500 Internal Server Error if version check fails
func (h *SystemHandler) Version(w http.ResponseWriter, _ *http.Request) {
	version, err := h.systemService.CheckVersion()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to get version information", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, version)
}

// Stats handles GET requests for record counts.
//
// Endpoint: GET /api/system/stats
// Query Parameters:
//   - account_id: Optional, scope the counts to one account
//
// Response: 200 OK with model.Stats
// Error: 400 Bad Request if account_id is not a positive integer
func (h *SystemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	accountID, err := request.ParseOptionalID(r.URL.Query().Get("account_id"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid account_id", err.Error())
		return
	}

	stats, err := h.systemService.GetStats(r.Context(), accountID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to get stats", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, stats)
}
