package request

import (
	"slices"

	"github.com/shopspring/decimal"
)

// CreateTransactionRequest is the body of POST /api/transaction.
type CreateTransactionRequest struct {
	Timestamp     string           `json:"ts"`
	AccountID     int64            `json:"accountId"`
	AssetSymbol   string           `json:"assetSymbol"`
	Side          string           `json:"side"`
	Quantity      decimal.Decimal  `json:"qty"`
	PriceQuote    *decimal.Decimal `json:"priceQuote,omitempty"`
	TotalQuote    *decimal.Decimal `json:"totalQuote,omitempty"`
	QuoteCcy      string           `json:"quoteCcy"`
	FeeQuantity   *decimal.Decimal `json:"feeQty,omitempty"`
	FeeAsset      string           `json:"feeAsset"`
	Note          string           `json:"note"`
	TxHash        string           `json:"txHash"`
	ExternalID    string           `json:"externalId"`
	Datasource    string           `json:"datasource"`
	ImportBatchID string           `json:"importBatchId"`
	Tags          string           `json:"tags"`
}

// Fields of a transaction that an update can reset to null through Clear.
const (
	ClearPriceQuote = "priceQuote"
	ClearTotalQuote = "totalQuote"
	ClearFee        = "feeQty"
)

// ClearableFields lists the accepted values of UpdateTransactionRequest.Clear.
var ClearableFields = []string{ClearPriceQuote, ClearTotalQuote, ClearFee}

// UpdateTransactionRequest holds optional replacements. Absent fields keep
// their value. A JSON null reads as absent, so nullable fields are reset by
// naming them in Clear. Clearing feeQty also clears feeAsset.
type UpdateTransactionRequest struct {
	Timestamp     *string          `json:"ts,omitempty"`
	AccountID     *int64           `json:"accountId,omitempty"`
	AssetSymbol   *string          `json:"assetSymbol,omitempty"`
	Side          *string          `json:"side,omitempty"`
	Quantity      *decimal.Decimal `json:"qty,omitempty"`
	PriceQuote    *decimal.Decimal `json:"priceQuote,omitempty"`
	TotalQuote    *decimal.Decimal `json:"totalQuote,omitempty"`
	QuoteCcy      *string          `json:"quoteCcy,omitempty"`
	FeeQuantity   *decimal.Decimal `json:"feeQty,omitempty"`
	FeeAsset      *string          `json:"feeAsset,omitempty"`
	Note          *string          `json:"note,omitempty"`
	TxHash        *string          `json:"txHash,omitempty"`
	ExternalID    *string          `json:"externalId,omitempty"`
	Datasource    *string          `json:"datasource,omitempty"`
	ImportBatchID *string          `json:"importBatchId,omitempty"`
	Tags          *string          `json:"tags,omitempty"`
	Clear         []string         `json:"clear,omitempty"`
}

// Clears reports whether field is named in Clear.
func (r UpdateTransactionRequest) Clears(field string) bool {
	return slices.Contains(r.Clear, field)
}
