package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/repository"
	"github.com/ndewijer/wealth-tracker/internal/validation"
)

// DefaultAutoPriceWindow bounds how old an entry may be for its missing
// price to be filled from the latest quote.
const DefaultAutoPriceWindow = 24 * time.Hour

// Quoter resolves the latest price of an asset. provider, when it names a
// registered provider, is tried first.
type Quoter interface {
	QuoteVia(ctx context.Context, asset, quote, provider string) (model.PricePoint, error)
}

// TransactionService handles ledger entry business logic operations.
type TransactionService struct {
	transactionRepo *repository.TransactionRepository
	accountRepo     *repository.AccountRepository
	quoter          Quoter
	baseCurrency    string
	autoPriceWindow time.Duration
	logger          *zap.Logger
	now             func() time.Time
}

// NewTransactionService creates a new TransactionService. quoter may be nil,
// which disables price auto-fill.
func NewTransactionService(
	transactionRepo *repository.TransactionRepository,
	accountRepo *repository.AccountRepository,
	quoter Quoter,
	baseCurrency string,
	logger *zap.Logger,
) *TransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionService{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		quoter:          quoter,
		baseCurrency:    strings.ToUpper(baseCurrency),
		autoPriceWindow: DefaultAutoPriceWindow,
		logger:          logger,
		now:             time.Now,
	}
}

// GetTransactions returns the entries matching filter ordered by timestamp then id.
func (s *TransactionService) GetTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, error) {
	return s.transactionRepo.ListTransactions(ctx, filter)
}

// GetTransaction retrieves a single transaction by its ID.
func (s *TransactionService) GetTransaction(ctx context.Context, id int64) (model.Transaction, error) {
	return s.transactionRepo.GetTransaction(ctx, id)
}

// CreateTransaction records a new ledger entry.
//
// The quote currency defaults to the account currency, then to the base
// currency. A recent buy or sell without price and total is priced from the
// latest quote when a quoter is configured, asking the provider named by its
// datasource first. A failed lookup leaves the entry unpriced, so its lot will
// have an unknown cost.
func (s *TransactionService) CreateTransaction(ctx context.Context, req request.CreateTransactionRequest) (*model.Transaction, error) {
	ts, err := request.ParseTime(req.Timestamp)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	tx := &model.Transaction{
		Timestamp:     ts,
		AccountID:     account.ID,
		AssetSymbol:   strings.ToUpper(strings.TrimSpace(req.AssetSymbol)),
		Side:          model.Side(req.Side),
		Quantity:      req.Quantity,
		PriceQuote:    nullable(req.PriceQuote),
		TotalQuote:    nullable(req.TotalQuote),
		QuoteCcy:      strings.ToUpper(strings.TrimSpace(req.QuoteCcy)),
		FeeQuantity:   nullable(req.FeeQuantity),
		FeeAsset:      strings.ToUpper(strings.TrimSpace(req.FeeAsset)),
		Note:          validation.SanitizeText(req.Note),
		TxHash:        strings.TrimSpace(req.TxHash),
		ExternalID:    strings.TrimSpace(req.ExternalID),
		Datasource:    strings.TrimSpace(req.Datasource),
		ImportBatchID: strings.TrimSpace(req.ImportBatchID),
		Tags:          validation.SanitizeText(req.Tags),
	}
	if tx.QuoteCcy == "" {
		tx.QuoteCcy = account.Currency
	}
	if tx.QuoteCcy == "" {
		tx.QuoteCcy = s.baseCurrency
	}
	if err := validation.ValidateNetQuantity(*tx); err != nil {
		return nil, err
	}

	s.fillPrice(ctx, tx)

	if err := s.transactionRepo.InsertTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

// UpdateTransaction applies the provided fields to an existing entry. Fields
// named in req.Clear are reset to null. The merged entry is checked again and,
// when it is left without price and total, priced the way CreateTransaction does.
func (s *TransactionService) UpdateTransaction(ctx context.Context, id int64, req request.UpdateTransactionRequest) (*model.Transaction, error) {
	tx, err := s.transactionRepo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Timestamp != nil {
		ts, err := request.ParseTime(*req.Timestamp)
		if err != nil {
			return nil, err
		}
		tx.Timestamp = ts
	}
	if req.AccountID != nil {
		if _, err := s.accountRepo.GetAccount(ctx, *req.AccountID); err != nil {
			return nil, err
		}
		tx.AccountID = *req.AccountID
	}
	if req.AssetSymbol != nil {
		tx.AssetSymbol = strings.ToUpper(strings.TrimSpace(*req.AssetSymbol))
	}
	if req.Side != nil {
		tx.Side = model.Side(*req.Side)
	}
	if req.Quantity != nil {
		tx.Quantity = *req.Quantity
	}
	if req.PriceQuote != nil {
		tx.PriceQuote = nullable(req.PriceQuote)
	}
	if req.TotalQuote != nil {
		tx.TotalQuote = nullable(req.TotalQuote)
	}
	if req.QuoteCcy != nil {
		tx.QuoteCcy = strings.ToUpper(strings.TrimSpace(*req.QuoteCcy))
	}
	if req.FeeQuantity != nil {
		tx.FeeQuantity = nullable(req.FeeQuantity)
	}
	if req.FeeAsset != nil {
		tx.FeeAsset = strings.ToUpper(strings.TrimSpace(*req.FeeAsset))
	}
	if req.Note != nil {
		tx.Note = validation.SanitizeText(*req.Note)
	}
	if req.TxHash != nil {
		tx.TxHash = strings.TrimSpace(*req.TxHash)
	}
	if req.ExternalID != nil {
		tx.ExternalID = strings.TrimSpace(*req.ExternalID)
	}
	if req.Datasource != nil {
		tx.Datasource = strings.TrimSpace(*req.Datasource)
	}
	if req.ImportBatchID != nil {
		tx.ImportBatchID = strings.TrimSpace(*req.ImportBatchID)
	}
	if req.Tags != nil {
		tx.Tags = validation.SanitizeText(*req.Tags)
	}

	if req.Clears(request.ClearPriceQuote) {
		tx.PriceQuote = decimal.NullDecimal{}
	}
	if req.Clears(request.ClearTotalQuote) {
		tx.TotalQuote = decimal.NullDecimal{}
	}
	if req.Clears(request.ClearFee) {
		tx.FeeQuantity = decimal.NullDecimal{}
		tx.FeeAsset = ""
	}

	if err := validation.ValidateNetQuantity(tx); err != nil {
		return nil, err
	}

	s.fillPrice(ctx, &tx)

	if err := s.transactionRepo.UpdateTransaction(ctx, &tx); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	return &tx, nil
}

// DeleteTransaction removes one ledger entry.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id int64) error {
	return s.transactionRepo.DeleteTransaction(ctx, id)
}

func (s *TransactionService) fillPrice(ctx context.Context, tx *model.Transaction) {
	if s.quoter == nil || tx.PriceQuote.Valid || tx.TotalQuote.Valid {
		return
	}
	if tx.Side != model.SideBuy && tx.Side != model.SideSell {
		return
	}
	if s.now().Sub(tx.Timestamp) > s.autoPriceWindow {
		return
	}

	point, err := s.quoter.QuoteVia(ctx, tx.AssetSymbol, tx.QuoteCcy, tx.Datasource)
	if err != nil {
		s.logger.Warn("could not price transaction",
			zap.Int64("id", tx.ID),
			zap.String("asset", tx.AssetSymbol),
			zap.String("quote", tx.QuoteCcy),
			zap.Error(err),
		)
		return
	}
	tx.PriceQuote = decimal.NewNullDecimal(point.Price)
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
