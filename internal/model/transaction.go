package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a ledger entry.
type Side string

// Ledger sides.
const (
	SideBuy         Side = "buy"
	SideSell        Side = "sell"
	SideTransferIn  Side = "transfer_in"
	SideTransferOut Side = "transfer_out"
)

// ValidSides lists every side accepted by the ledger.
var ValidSides = map[Side]bool{
	SideBuy:         true,
	SideSell:        true,
	SideTransferIn:  true,
	SideTransferOut: true,
}

// Inbound reports whether the side adds quantity to a holding.
func (s Side) Inbound() bool {
	return s == SideBuy || s == SideTransferIn
}

// Transaction is an immutable ledger entry. Quantity is always positive,
// Side determines the direction.
type Transaction struct {
	ID            int64               `json:"id"`
	Timestamp     time.Time           `json:"ts"`
	AccountID     int64               `json:"accountId"`
	AssetSymbol   string              `json:"assetSymbol"`
	Side          Side                `json:"side"`
	Quantity      decimal.Decimal     `json:"qty"`
	PriceQuote    decimal.NullDecimal `json:"priceQuote"`
	TotalQuote    decimal.NullDecimal `json:"totalQuote"`
	QuoteCcy      string              `json:"quoteCcy"`
	FeeQuantity   decimal.NullDecimal `json:"feeQty"`
	FeeAsset      string              `json:"feeAsset,omitempty"`
	Note          string              `json:"note,omitempty"`
	TxHash        string              `json:"txHash,omitempty"`
	ExternalID    string              `json:"externalId,omitempty"`
	Datasource    string              `json:"datasource,omitempty"`
	ImportBatchID string              `json:"importBatchId,omitempty"`
	Tags          string              `json:"tags,omitempty"`
}

// TransactionFilter narrows a ledger query. Zero values mean "no constraint".
type TransactionFilter struct {
	AssetSymbol string
	AccountID   *int64
	Side        Side
	From        *time.Time
	Until       *time.Time
}
