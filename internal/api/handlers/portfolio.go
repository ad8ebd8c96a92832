package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/api/response"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/service"
)

// PortfolioHandler handles portfolio valuation requests
type PortfolioHandler struct {
	valuationService *service.ValuationService
	priceService     *service.PriceService
	staleAfter       time.Duration
	logger           *zap.Logger
	now              func() time.Time
}

// NewPortfolioHandler creates a new PortfolioHandler. priceService may be nil,
// which disables the refresh before summarizing.
func NewPortfolioHandler(
	valuationService *service.ValuationService,
	priceService *service.PriceService,
	staleAfter time.Duration,
	logger *zap.Logger,
) *PortfolioHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortfolioHandler{
		valuationService: valuationService,
		priceService:     priceService,
		staleAfter:       staleAfter,
		logger:           logger,
		now:              time.Now,
	}
}

// SummaryResponse is a portfolio summary plus the refresh that preceded it.
type SummaryResponse struct {
	*model.PortfolioSummary
	Refresh *model.RefreshReport `json:"refresh,omitempty"`
}

// Summary values every position as of a point in time.
//
// Endpoint: GET /api/portfolio/summary?quote&account_id&as_of&refresh
// Response: 200 OK with SummaryResponse
// Error: 400 Bad Request if a query parameter is invalid
// Error: 409 Conflict with {asset, transaction_id, shortfall} if the ledger is oversold
//
// Unless refresh=false, stale quotes of held assets are refreshed first when
// as_of is recent. Refresh failures are reported but never fail the request.
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := h.now()
	query, err := request.ParsePortfolioQuery(q.Get("quote"), q.Get("account_id"), q.Get("as_of"), q.Get("refresh"), h.valuationService.BaseCurrency(), now)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	var report *model.RefreshReport
	if query.Refresh && h.priceService != nil && !query.AsOf.Before(now.Add(-h.staleAfter)) {
		report = h.refresh(r.Context(), query)
	}

	summary, err := h.valuationService.SummarizePortfolio(r.Context(), query.AsOf, query.QuoteCcy, query.AccountID)
	if err != nil {
		respondServiceError(w, err, "failed to summarize portfolio")
		return
	}

	response.RespondJSON(w, http.StatusOK, SummaryResponse{PortfolioSummary: summary, Refresh: report})
}

// Holdings returns the net quantity per asset.
//
// Endpoint: GET /api/portfolio/holdings?account_id&as_of
// Response: 200 OK with a map of asset to quantity
func (h *PortfolioHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query, err := request.ParsePortfolioQuery("", q.Get("account_id"), q.Get("as_of"), "", h.valuationService.BaseCurrency(), h.now())
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	holdings, err := h.valuationService.ComputeHoldings(r.Context(), query.AsOf, query.AccountID)
	if err != nil {
		respondServiceError(w, err, "failed to compute holdings")
		return
	}

	response.RespondJSON(w, http.StatusOK, holdings)
}

func (h *PortfolioHandler) refresh(ctx context.Context, query *request.PortfolioQuery) *model.RefreshReport {
	report, err := h.priceService.RefreshStale(ctx, query.QuoteCcy, query.AccountID, h.staleAfter)
	if err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Warn("price refresh before summary failed",
			zap.String("quote", query.QuoteCcy),
			zap.Error(err),
		)
	}
	return report
}
