package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/wealth-tracker/internal/database"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/repository"
	"github.com/ndewijer/wealth-tracker/internal/valuation"
)

// ValuationService computes holdings and portfolio summaries from the ledger
// and the stored price snapshot.
type ValuationService struct {
	db              *sql.DB
	transactionRepo *repository.TransactionRepository
	priceRepo       *repository.PriceRepository
	baseCurrency    string
	transfers       valuation.TransferPolicy
}

// NewValuationService creates a new ValuationService.
func NewValuationService(
	db *sql.DB,
	transactionRepo *repository.TransactionRepository,
	priceRepo *repository.PriceRepository,
	baseCurrency string,
	transfers valuation.TransferPolicy,
) *ValuationService {
	return &ValuationService{
		db:              db,
		transactionRepo: transactionRepo,
		priceRepo:       priceRepo,
		baseCurrency:    strings.ToUpper(baseCurrency),
		transfers:       transfers,
	}
}

// BaseCurrency returns the default quote currency.
func (s *ValuationService) BaseCurrency() string {
	return s.baseCurrency
}

// SummarizePortfolio values every asset held (or realized) as of asOf in quote.
// accountID restricts the ledger to one account when set. Ledger and prices
// are read in one transaction; an oversold ledger fails the whole call.
func (s *ValuationService) SummarizePortfolio(ctx context.Context, asOf time.Time, quote string, accountID *int64) (*model.PortfolioSummary, error) {
	quote = s.quoteOrBase(quote)
	asOf = asOf.UTC()

	var summary *model.PortfolioSummary
	err := database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		transactionRepo := s.transactionRepo.WithTx(tx)
		priceRepo := s.priceRepo.WithTx(tx)

		txs, err := transactionRepo.ListTransactions(ctx, model.TransactionFilter{AccountID: accountID, Until: &asOf})
		if err != nil {
			return err
		}

		fees, err := loadFeePrices(ctx, priceRepo, txs)
		if err != nil {
			return err
		}

		matches, err := valuation.MatchAll(txs, asOf, valuation.Options{Transfers: s.transfers, FeeValuer: fees.value})
		if err != nil {
			return err
		}

		positions := make([]model.Position, 0, len(matches))
		for _, m := range matches {
			price, err := priceAsOf(ctx, priceRepo, m.AssetSymbol, quote, asOf)
			if err != nil {
				return err
			}
			positions = append(positions, valuation.ValuePosition(m, price, quote))
		}

		positions, totals := valuation.Aggregate(positions, quote)
		summary = &model.PortfolioSummary{
			AsOf:      asOf,
			QuoteCcy:  quote,
			AccountID: accountID,
			Positions: positions,
			Totals:    totals,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ComputeHoldings returns the open quantity per asset as of asOf. Assets with
// nothing open are omitted.
func (s *ValuationService) ComputeHoldings(ctx context.Context, asOf time.Time, accountID *int64) (map[string]decimal.Decimal, error) {
	asOf = asOf.UTC()

	var holdings map[string]decimal.Decimal
	err := database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		txs, err := s.transactionRepo.WithTx(tx).ListTransactions(ctx, model.TransactionFilter{AccountID: accountID, Until: &asOf})
		if err != nil {
			return err
		}
		holdings, err = valuation.Holdings(txs, asOf, valuation.Options{Transfers: s.transfers})
		return err
	})
	if err != nil {
		return nil, err
	}
	return holdings, nil
}

func (s *ValuationService) quoteOrBase(quote string) string {
	if q := strings.ToUpper(strings.TrimSpace(quote)); q != "" {
		return q
	}
	return s.baseCurrency
}

// priceAsOf picks the newest stored price at or before asOf from the latest
// snapshot and the history table.
func priceAsOf(ctx context.Context, repo *repository.PriceRepository, asset, quote string, asOf time.Time) (*model.PricePoint, error) {
	latest, err := repo.Get(ctx, asset, quote)
	if err != nil {
		return nil, fmt.Errorf("failed to load price of %s/%s: %w", asset, quote, err)
	}
	hist, err := repo.HistoryAsOf(ctx, asset, quote, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history of %s/%s: %w", asset, quote, err)
	}
	return valuation.PickPrice(asOf, latest, hist), nil
}

// feePrices holds the prices of third-asset fees, looked up before matching
// so that the matcher itself stays free of I/O.
type feePrices map[string]decimal.Decimal

func feeKey(asset, quote string, at time.Time) string {
	return asset + "|" + quote + "|" + repository.FormatTime(at)
}

func loadFeePrices(ctx context.Context, repo *repository.PriceRepository, txs []model.Transaction) (feePrices, error) {
	prices := feePrices{}
	for _, tx := range txs {
		if !tx.FeeQuantity.Valid || tx.FeeQuantity.Decimal.IsZero() {
			continue
		}
		feeAsset := strings.ToUpper(tx.FeeAsset)
		if feeAsset == "" || feeAsset == tx.AssetSymbol || feeAsset == tx.QuoteCcy {
			continue
		}
		key := feeKey(feeAsset, tx.QuoteCcy, tx.Timestamp)
		if _, ok := prices[key]; ok {
			continue
		}
		p, err := priceAsOf(ctx, repo, feeAsset, tx.QuoteCcy, tx.Timestamp)
		if err != nil {
			return nil, err
		}
		if p != nil {
			prices[key] = p.Price
		}
	}
	return prices, nil
}

func (f feePrices) value(asset, quote string, at time.Time) (decimal.Decimal, bool) {
	px, ok := f[feeKey(asset, quote, at)]
	return px, ok
}
