package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/journal"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/pricing"
)

// PriceService fronts the price resolver for the API, the CLI and the scheduler.
type PriceService struct {
	resolver  *pricing.Resolver
	cache     pricing.Cache
	valuation *ValuationService
	journal   *journal.Journal
	pacing    time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewPriceService creates a new PriceService. j may be nil when the
// resolution journal is disabled.
func NewPriceService(
	resolver *pricing.Resolver,
	cache pricing.Cache,
	valuationService *ValuationService,
	j *journal.Journal,
	pacing time.Duration,
	logger *zap.Logger,
) *PriceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceService{
		resolver:  resolver,
		cache:     cache,
		valuation: valuationService,
		journal:   j,
		pacing:    pacing,
		logger:    logger,
		now:       time.Now,
	}
}

// Quote resolves the latest price of asset in quote.
func (s *PriceService) Quote(ctx context.Context, asset, quote string, providers []string) (model.PricePoint, error) {
	return s.resolver.ResolveQuote(ctx, asset, s.valuation.quoteOrBase(quote), providers)
}

// QuoteVia resolves the latest price of asset in quote, trying provider
// before the stored preference when it is registered.
func (s *PriceService) QuoteVia(ctx context.Context, asset, quote, provider string) (model.PricePoint, error) {
	return s.resolver.ResolveQuoteVia(ctx, asset, s.valuation.quoteOrBase(quote), provider)
}

// RefreshStale resolves a fresh quote for every held asset whose cached price
// is missing or older than maxAge. Assets are fetched one at a time, paced by
// the configured interval. Provider failures are collected in the report; only
// context cancellation and ledger errors abort the run.
func (s *PriceService) RefreshStale(ctx context.Context, quote string, accountID *int64, maxAge time.Duration) (*model.RefreshReport, error) {
	quote = s.valuation.quoteOrBase(quote)
	report := &model.RefreshReport{
		RunID:    uuid.NewString(),
		QuoteCcy: quote,
		Failed:   map[string]string{},
	}

	holdings, err := s.valuation.ComputeHoldings(ctx, s.now(), accountID)
	if err != nil {
		return nil, err
	}
	assets := make([]string, 0, len(holdings))
	for asset := range holdings {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	limit := rate.Inf
	if s.pacing > 0 {
		limit = rate.Every(s.pacing)
	}
	limiter := rate.NewLimiter(limit, 1)

	for _, asset := range assets {
		report.Checked++

		cached, err := s.cache.Get(ctx, asset, quote)
		if err != nil {
			return nil, err
		}
		if cached != nil && s.now().Sub(cached.Timestamp) <= maxAge {
			report.Fresh = append(report.Fresh, asset)
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return report, err
		}
		point, err := s.resolver.ResolveQuote(ctx, asset, quote, nil)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			report.Failed[asset] = err.Error()
			continue
		}
		report.Refreshed = append(report.Refreshed, point)
	}

	s.logger.Info("price refresh finished",
		zap.String("run_id", report.RunID),
		zap.String("quote", quote),
		zap.Int("checked", report.Checked),
		zap.Int("fresh", len(report.Fresh)),
		zap.Int("refreshed", len(report.Refreshed)),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// SyncHistory fetches candles for asset within [start, end] and stores them.
// The interval defaults to daily bars.
func (s *PriceService) SyncHistory(ctx context.Context, asset, quote string, start, end time.Time, interval string, providers []string) (*model.HistorySyncResult, error) {
	if interval == "" {
		interval = pricing.IntervalDay
	}
	quote = s.valuation.quoteOrBase(quote)

	history, err := s.resolver.ResolveOHLCV(ctx, asset, quote, start, end, interval, providers)
	if err != nil {
		return nil, err
	}
	return &model.HistorySyncResult{
		AssetSymbol: strings.ToUpper(asset),
		QuoteCcy:    quote,
		Provider:    history.Provider,
		Stored:      len(history.Candles),
	}, nil
}

// Providers returns the registered provider ids in sorted order.
func (s *PriceService) Providers() []string {
	return s.resolver.Registry().IDs()
}

// Journal returns the most recent resolutions, newest first.
func (s *PriceService) Journal(limit int) ([]journal.Entry, error) {
	if s.journal == nil {
		return nil, apperrors.ErrJournalDisabled
	}
	return s.journal.Recent(limit)
}
