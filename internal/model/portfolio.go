package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a slice of acquired quantity not yet fully disposed.
// Lots are derived from the ledger on every valuation and never persisted.
// Cost is the remaining cost basis; partial disposals shrink Quantity and
// Cost proportionally so the total basis is conserved.
type Lot struct {
	TransactionID int64           `json:"transactionId"`
	OpenedAt      time.Time       `json:"openedAt"`
	Quantity      decimal.Decimal `json:"qty"`
	UnitCost      decimal.Decimal `json:"unitCost"`
	Cost          decimal.Decimal `json:"cost"`
	QuoteCcy      string          `json:"quoteCcy"`
	CostUnknown   bool            `json:"costUnknown"`
}

// RealizedEvent records a disposal matched against one lot.
// Gain is quantity × (unit proceeds − unit cost) and is only meaningful
// when neither CostUnknown nor ProceedsUnknown is set.
type RealizedEvent struct {
	TransactionID    int64           `json:"transactionId"`
	LotTransactionID int64           `json:"lotTransactionId"`
	DisposedAt       time.Time       `json:"disposedAt"`
	Quantity         decimal.Decimal `json:"qty"`
	UnitCost         decimal.Decimal `json:"unitCost"`
	UnitProceeds     decimal.Decimal `json:"unitProceeds"`
	Gain             decimal.Decimal `json:"gain"`
	CostCcy          string          `json:"costCcy"`
	ProceedsCcy      string          `json:"proceedsCcy"`
	CostUnknown      bool            `json:"costUnknown"`
	ProceedsUnknown  bool            `json:"proceedsUnknown"`
}

// Known reports whether the gain can be counted in the given quote currency.
func (e RealizedEvent) Known(quote string) bool {
	return !e.CostUnknown && !e.ProceedsUnknown && e.CostCcy == quote && e.ProceedsCcy == quote
}

// Position is the per-asset snapshot returned by a valuation. Nullable fields
// are absent when no price is resolvable or the cost basis is unknown.
type Position struct {
	AssetSymbol        string              `json:"assetSymbol"`
	Quantity           decimal.Decimal     `json:"qty"`
	Price              decimal.NullDecimal `json:"price"`
	PriceTimestamp     *time.Time          `json:"priceTs"`
	PriceSource        string              `json:"priceSource,omitempty"`
	Value              decimal.NullDecimal `json:"value"`
	CostOpen           decimal.NullDecimal `json:"costOpen"`
	UnrealizedPnL      decimal.NullDecimal `json:"unrealizedPnl"`
	RealizedPnL        decimal.Decimal     `json:"realizedPnl"`
	RealizedIncomplete bool                `json:"realizedIncomplete,omitempty"`
}

// PortfolioTotals sums positions in one quote currency. Missing values count
// as zero; Incomplete is set when any position lacked a price or cost basis.
type PortfolioTotals struct {
	QuoteCcy      string          `json:"quoteCcy"`
	Value         decimal.Decimal `json:"value"`
	CostOpen      decimal.Decimal `json:"costOpen"`
	UnrealizedPnL decimal.Decimal `json:"unrealizedPnl"`
	RealizedPnL   decimal.Decimal `json:"realizedPnl"`
	Incomplete    bool            `json:"incomplete"`
}

// PortfolioSummary is the result of summarizing a portfolio as of an instant.
type PortfolioSummary struct {
	AsOf      time.Time       `json:"asOf"`
	QuoteCcy  string          `json:"quoteCcy"`
	AccountID *int64          `json:"accountId,omitempty"`
	Positions []Position      `json:"positions"`
	Totals    PortfolioTotals `json:"totals"`
}
