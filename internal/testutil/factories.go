package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/repository"
)

// AccountBuilder provides a fluent interface for creating test accounts.
//
// Example usage:
//
//	// Simple creation with defaults
//	account := testutil.NewAccount().Build(t, db)
//
//	// Customized account
//	account := testutil.NewAccount().
//	    WithName("Ledger Nano").
//	    WithType(model.AccountTypeWallet).
//	    Build(t, db)
type AccountBuilder struct {
	Name     string
	Type     string
	Currency string
}

// NewAccount creates an AccountBuilder with sensible defaults.
func NewAccount() *AccountBuilder {
	return &AccountBuilder{
		Name: MakeAccountName("Test Account"),
		Type: model.AccountTypeExchange,
	}
}

// WithName sets a custom name.
func (b *AccountBuilder) WithName(name string) *AccountBuilder {
	b.Name = name
	return b
}

// WithType sets the account type.
func (b *AccountBuilder) WithType(accountType string) *AccountBuilder {
	b.Type = accountType
	return b
}

// WithCurrency sets the account currency.
func (b *AccountBuilder) WithCurrency(ccy string) *AccountBuilder {
	b.Currency = ccy
	return b
}

// Build creates the account in the database and returns it.
func (b *AccountBuilder) Build(t *testing.T, db *sql.DB) model.Account {
	t.Helper()

	a := model.Account{
		Name:      b.Name,
		Type:      b.Type,
		Currency:  b.Currency,
		CreatedAt: time.Now().UTC(),
	}
	if err := repository.NewAccountRepository(db).InsertAccount(context.Background(), &a); err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}
	return a
}

// TransactionBuilder provides a fluent interface for creating ledger entries.
//
// Example usage:
//
//	testutil.NewTransaction(account.ID).
//	    Buy("BTC", "1.5").
//	    WithPrice("20000").
//	    At(testutil.Day(1)).
//	    Build(t, db)
type TransactionBuilder struct {
	tx model.Transaction
}

// NewTransaction creates a buy of 1 BTC at 100 USD on 2024-01-01 in accountID.
func NewTransaction(accountID int64) *TransactionBuilder {
	return &TransactionBuilder{tx: model.Transaction{
		AccountID:   accountID,
		Timestamp:   Day(1),
		AssetSymbol: "BTC",
		Side:        model.SideBuy,
		Quantity:    decimal.NewFromInt(1),
		PriceQuote:  decimal.NewNullDecimal(decimal.NewFromInt(100)),
		QuoteCcy:    "USD",
	}}
}

func (b *TransactionBuilder) side(side model.Side, asset, qty string) *TransactionBuilder {
	b.tx.Side = side
	b.tx.AssetSymbol = asset
	b.tx.Quantity = decimal.RequireFromString(qty)
	return b
}

// Buy sets the side to buy.
func (b *TransactionBuilder) Buy(asset, qty string) *TransactionBuilder {
	return b.side(model.SideBuy, asset, qty)
}

// Sell sets the side to sell.
func (b *TransactionBuilder) Sell(asset, qty string) *TransactionBuilder {
	return b.side(model.SideSell, asset, qty)
}

// TransferIn sets the side to transfer_in and clears the price.
func (b *TransactionBuilder) TransferIn(asset, qty string) *TransactionBuilder {
	b.tx.PriceQuote = decimal.NullDecimal{}
	return b.side(model.SideTransferIn, asset, qty)
}

// TransferOut sets the side to transfer_out and clears the price.
func (b *TransactionBuilder) TransferOut(asset, qty string) *TransactionBuilder {
	b.tx.PriceQuote = decimal.NullDecimal{}
	return b.side(model.SideTransferOut, asset, qty)
}

// At sets the timestamp.
func (b *TransactionBuilder) At(ts time.Time) *TransactionBuilder {
	b.tx.Timestamp = ts
	return b
}

// WithPrice sets the unit price. An empty string clears it.
func (b *TransactionBuilder) WithPrice(price string) *TransactionBuilder {
	b.tx.PriceQuote = nullDecimal(price)
	return b
}

// WithTotal sets the total and clears the unit price.
func (b *TransactionBuilder) WithTotal(total string) *TransactionBuilder {
	b.tx.PriceQuote = decimal.NullDecimal{}
	b.tx.TotalQuote = nullDecimal(total)
	return b
}

// WithQuote sets the quote currency.
func (b *TransactionBuilder) WithQuote(ccy string) *TransactionBuilder {
	b.tx.QuoteCcy = ccy
	return b
}

// WithFee sets the fee quantity and asset.
func (b *TransactionBuilder) WithFee(qty, asset string) *TransactionBuilder {
	b.tx.FeeQuantity = nullDecimal(qty)
	b.tx.FeeAsset = asset
	return b
}

// WithExternalID sets the import identity.
func (b *TransactionBuilder) WithExternalID(datasource, id string) *TransactionBuilder {
	b.tx.Datasource = datasource
	b.tx.ExternalID = id
	return b
}

// Build inserts the entry and returns it with its ID set.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	tx := b.tx
	if err := repository.NewTransactionRepository(db).InsertTransaction(context.Background(), &tx); err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}
	return tx
}

// PricePointBuilder creates stored prices.
type PricePointBuilder struct {
	p       model.PricePoint
	history bool
}

// NewPricePoint creates a BTC/USD price of 100 at Day(1) from "test".
func NewPricePoint() *PricePointBuilder {
	return &PricePointBuilder{p: model.PricePoint{
		AssetSymbol: "BTC",
		QuoteCcy:    "USD",
		Price:       decimal.NewFromInt(100),
		Timestamp:   Day(1),
		Source:      "test",
	}}
}

// For sets the asset and quote.
func (b *PricePointBuilder) For(asset, quote string) *PricePointBuilder {
	b.p.AssetSymbol, b.p.QuoteCcy = asset, quote
	return b
}

// WithPrice sets the price.
func (b *PricePointBuilder) WithPrice(price string) *PricePointBuilder {
	b.p.Price = decimal.RequireFromString(price)
	return b
}

// At sets the timestamp.
func (b *PricePointBuilder) At(ts time.Time) *PricePointBuilder {
	b.p.Timestamp = ts
	return b
}

// AsHistory stores the point as a history candle instead of the latest price.
func (b *PricePointBuilder) AsHistory() *PricePointBuilder {
	b.history = true
	return b
}

// Build stores the point.
func (b *PricePointBuilder) Build(t *testing.T, db *sql.DB) model.PricePoint {
	t.Helper()

	repo := repository.NewPriceRepository(db)
	ctx := context.Background()
	if b.history {
		candle := model.Candle{Timestamp: b.p.Timestamp, Open: b.p.Price, Close: b.p.Price}
		if _, err := repo.PutHistory(ctx, b.p.AssetSymbol, b.p.QuoteCcy, b.p.Source, []model.Candle{candle}); err != nil {
			t.Fatalf("Failed to create test price history: %v", err)
		}
		return b.p
	}
	if _, err := repo.Put(ctx, b.p); err != nil {
		t.Fatalf("Failed to create test price: %v", err)
	}
	return b.p
}

// Convenience functions

// CreateAccount creates an account with the given name.
func CreateAccount(t *testing.T, db *sql.DB, name string) model.Account {
	t.Helper()
	return NewAccount().WithName(name).Build(t, db)
}

// Day returns midnight UTC of the given day in January 2024.
func Day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func nullDecimal(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
