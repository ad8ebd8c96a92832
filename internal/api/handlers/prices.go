package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/api/response"
	"github.com/ndewijer/wealth-tracker/internal/service"
	"github.com/ndewijer/wealth-tracker/internal/validation"
)

// Journal page sizes.
const (
	defaultJournalLimit = 50
	maxJournalLimit     = 1000
)

// PriceHandler serves price resolution endpoints.
type PriceHandler struct {
	priceService *service.PriceService
	staleAfter   time.Duration
}

// NewPriceHandler creates a new PriceHandler. staleAfter is the default
// max_age of Refresh.
func NewPriceHandler(priceService *service.PriceService, staleAfter time.Duration) *PriceHandler {
	return &PriceHandler{priceService: priceService, staleAfter: staleAfter}
}

// Quote resolves the latest price.
//
// Endpoint: GET /api/price/quote?asset&quote&providers
// Response: 200 OK with PricePoint
// Error: 400 Bad Request if asset is missing
// Error: 502 Bad Gateway with the attempted providers when every provider failed
func (h *PriceHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	asset := strings.TrimSpace(q.Get("asset"))
	if asset == "" {
		response.RespondError(w, http.StatusBadRequest, "asset is required", "")
		return
	}

	point, err := h.priceService.Quote(r.Context(), asset, q.Get("quote"), request.ParseProviders(q.Get("providers")))
	if err != nil {
		respondServiceError(w, err, "failed to resolve quote")
		return
	}

	response.RespondJSON(w, http.StatusOK, point)
}

// SyncHistory fetches and stores candles.
//
// Endpoint: POST /api/price/history
// Request Body: SyncHistoryRequest (asset, quote, start, end, interval, providers)
// Response: 200 OK with HistorySyncResult
func (h *PriceHandler) SyncHistory(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.SyncHistoryRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateSyncHistory(req); err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	// Validated above.
	start, _ := request.ParseTime(req.Start)
	end, _ := request.ParseTime(req.End)

	result, err := h.priceService.SyncHistory(r.Context(), req.Asset, req.Quote, start, end, req.Interval, req.Providers)
	if err != nil {
		respondServiceError(w, err, "failed to sync price history")
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Refresh re-resolves missing and stale quotes of held assets.
//
// Endpoint: POST /api/price/refresh?quote&account_id&max_age
// Response: 200 OK with RefreshReport
//
// max_age is a Go duration such as 90s or 15m and defaults to the configured
// stale threshold. Per-asset failures are listed in the report.
func (h *PriceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accountID, err := request.ParseOptionalID(q.Get("account_id"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid account_id", err.Error())
		return
	}

	maxAge := h.staleAfter
	if s := q.Get("max_age"); s != "" {
		maxAge, err = time.ParseDuration(s)
		if err != nil || maxAge < 0 {
			response.RespondError(w, http.StatusBadRequest, "invalid max_age", "max_age must be a non-negative duration such as 15m")
			return
		}
	}

	report, err := h.priceService.RefreshStale(r.Context(), q.Get("quote"), accountID, maxAge)
	if err != nil {
		respondServiceError(w, err, "failed to refresh prices")
		return
	}

	response.RespondJSON(w, http.StatusOK, report)
}

// Providers lists the registered provider ids.
//
// Endpoint: GET /api/price/providers
func (h *PriceHandler) Providers(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, h.priceService.Providers())
}

// Journal returns recent resolution outcomes, newest first.
//
// Endpoint: GET /api/price/journal?limit
// Error: 404 Not Found when the journal is disabled
func (h *PriceHandler) Journal(w http.ResponseWriter, r *http.Request) {
	limit, err := request.ParseLimit(r.URL.Query().Get("limit"), defaultJournalLimit, maxJournalLimit)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid limit", err.Error())
		return
	}

	entries, err := h.priceService.Journal(limit)
	if err != nil {
		respondServiceError(w, err, "failed to read resolution journal")
		return
	}

	response.RespondJSON(w, http.StatusOK, entries)
}
