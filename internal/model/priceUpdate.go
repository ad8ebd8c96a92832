package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is an observed price of an asset in a quote currency.
type PricePoint struct {
	AssetSymbol string          `json:"assetSymbol"`
	QuoteCcy    string          `json:"quoteCcy"`
	Price       decimal.Decimal `json:"price"`
	Timestamp   time.Time       `json:"ts"`
	Source      string          `json:"source"`
}

// Candle is a single OHLCV bar. Only the close is used for valuation.
type Candle struct {
	Timestamp time.Time       `json:"ts"`
	Open      decimal.Decimal `json:"open"`
	Close     decimal.Decimal `json:"close"`
}

// ProviderPreference remembers which provider last succeeded for an asset.
type ProviderPreference struct {
	AssetSymbol string    `json:"assetSymbol"`
	ProviderID  string    `json:"providerId"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RefreshReport summarizes a stale-price refresh run.
type RefreshReport struct {
	RunID     string            `json:"runId"`
	QuoteCcy  string            `json:"quoteCcy"`
	Checked   int               `json:"checked"`
	Fresh     []string          `json:"fresh"`
	Refreshed []PricePoint      `json:"refreshed"`
	Failed    map[string]string `json:"failed"`
}

// HistorySyncResult reports how many candles a history sync stored.
type HistorySyncResult struct {
	AssetSymbol string `json:"assetSymbol"`
	QuoteCcy    string `json:"quoteCcy"`
	Provider    string `json:"provider"`
	Stored      int    `json:"stored"`
}
