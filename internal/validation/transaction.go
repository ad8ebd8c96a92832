package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/model"
)

// ValidateCreateTransaction validates a transaction creation request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - ts: Must be a date or RFC3339 timestamp
//   - accountId: Must be positive
//   - assetSymbol: Must be a symbol
//   - side: Must be one of: buy, sell, transfer_in, transfer_out
//   - qty: Must be positive
//
// Optional fields priceQuote, totalQuote and feeQty must not be negative. A buy
// or transfer_in must keep a positive quantity after a fee paid in the traded asset.
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Timestamp) == "" {
		errors["ts"] = "ts is required"
	} else if _, err := request.ParseTime(req.Timestamp); err != nil {
		errors["ts"] = err.Error()
	}

	if req.AccountID <= 0 {
		errors["accountId"] = "accountId is required"
	}

	if !validSymbol(strings.TrimSpace(req.AssetSymbol)) {
		errors["assetSymbol"] = "assetSymbol must be 1-20 letters, digits, '.', '-' or '_'"
	}

	if strings.TrimSpace(req.Side) == "" {
		errors["side"] = "side is required"
	} else if !model.ValidSides[model.Side(req.Side)] {
		errors["side"] = fmt.Sprintf("invalid side: %s", req.Side)
	}

	if !req.Quantity.IsPositive() {
		errors["qty"] = "qty must be positive"
	}

	checkNonNegative(errors, "priceQuote", req.PriceQuote)
	checkNonNegative(errors, "totalQuote", req.TotalQuote)
	checkNonNegative(errors, "feeQty", req.FeeQuantity)

	if req.QuoteCcy != "" && !validSymbol(req.QuoteCcy) {
		errors["quoteCcy"] = "invalid quote currency"
	}
	if req.FeeAsset != "" && !validSymbol(req.FeeAsset) {
		errors["feeAsset"] = "invalid fee asset"
	}
	if req.FeeQuantity != nil && model.Side(req.Side).Inbound() &&
		feeConsumesQuantity(req.AssetSymbol, req.FeeAsset, req.Quantity, *req.FeeQuantity) {
		errors["feeQty"] = errFeeConsumesQuantity
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdateTransaction validates a transaction update request.
// All fields are optional, but if provided, they must meet the same constraints as create.
func ValidateUpdateTransaction(req request.UpdateTransactionRequest) error {
	errors := make(map[string]string)

	if req.Timestamp != nil {
		if _, err := request.ParseTime(*req.Timestamp); err != nil {
			errors["ts"] = err.Error()
		}
	}
	if req.AccountID != nil && *req.AccountID <= 0 {
		errors["accountId"] = "accountId must be positive"
	}
	if req.AssetSymbol != nil && !validSymbol(strings.TrimSpace(*req.AssetSymbol)) {
		errors["assetSymbol"] = "assetSymbol must be 1-20 letters, digits, '.', '-' or '_'"
	}
	if req.Side != nil && !model.ValidSides[model.Side(*req.Side)] {
		errors["side"] = fmt.Sprintf("invalid side: %s", *req.Side)
	}
	if req.Quantity != nil && !req.Quantity.IsPositive() {
		errors["qty"] = "qty must be positive"
	}
	checkNonNegative(errors, "priceQuote", req.PriceQuote)
	checkNonNegative(errors, "totalQuote", req.TotalQuote)
	checkNonNegative(errors, "feeQty", req.FeeQuantity)

	if req.QuoteCcy != nil && !validSymbol(*req.QuoteCcy) {
		errors["quoteCcy"] = "invalid quote currency"
	}
	if req.FeeAsset != nil && *req.FeeAsset != "" && !validSymbol(*req.FeeAsset) {
		errors["feeAsset"] = "invalid fee asset"
	}

	for _, field := range req.Clear {
		switch field {
		case request.ClearPriceQuote:
			if req.PriceQuote != nil {
				errors["clear"] = "priceQuote cannot be set and cleared"
			}
		case request.ClearTotalQuote:
			if req.TotalQuote != nil {
				errors["clear"] = "totalQuote cannot be set and cleared"
			}
		case request.ClearFee:
			if req.FeeQuantity != nil || req.FeeAsset != nil {
				errors["clear"] = "feeQty cannot be set and cleared"
			}
		default:
			errors["clear"] = fmt.Sprintf("cannot clear %q, must be one of: %s",
				field, strings.Join(request.ClearableFields, ", "))
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateNetQuantity checks a transaction as it will be stored, after an
// update has been merged into it: an acquisition must keep a positive
// quantity after a fee paid in the traded asset.
func ValidateNetQuantity(tx model.Transaction) error {
	if !tx.Side.Inbound() || !tx.FeeQuantity.Valid {
		return nil
	}
	if feeConsumesQuantity(tx.AssetSymbol, tx.FeeAsset, tx.Quantity, tx.FeeQuantity.Decimal) {
		return &Error{Fields: map[string]string{"feeQty": errFeeConsumesQuantity}}
	}
	return nil
}

const errFeeConsumesQuantity = "feeQty paid in the traded asset must be less than qty"

func feeConsumesQuantity(asset, feeAsset string, qty, fee decimal.Decimal) bool {
	asset = strings.TrimSpace(asset)
	if asset == "" || !strings.EqualFold(asset, strings.TrimSpace(feeAsset)) {
		return false
	}
	return fee.GreaterThanOrEqual(qty)
}

func checkNonNegative(errors map[string]string, field string, v *decimal.Decimal) {
	if v != nil && v.IsNegative() {
		errors[field] = field + " must not be negative"
	}
}
