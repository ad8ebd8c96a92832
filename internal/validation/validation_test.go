package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/model"
)

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *Error
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Fields
}

func TestValidateID(t *testing.T) {
	id, err := ValidateID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, s := range []string{"", "0", "-3", "abc", "1.5"} {
		_, err := ValidateID(s)
		assert.ErrorIs(t, err, ErrInvalidID, s)
	}
}

func TestValidateCreateTransaction(t *testing.T) {
	valid := request.CreateTransactionRequest{
		Timestamp:   "2024-01-01T10:00:00Z",
		AccountID:   1,
		AssetSymbol: "BTC",
		Side:        "buy",
		Quantity:    decimal.NewFromInt(1),
	}
	assert.NoError(t, ValidateCreateTransaction(valid))

	neg := decimal.NewFromInt(-1)
	bad := request.CreateTransactionRequest{
		Timestamp:   "tomorrow",
		AssetSymbol: "BTC/USD",
		Side:        "swap",
		Quantity:    decimal.Zero,
		PriceQuote:  &neg,
		QuoteCcy:    "US DOLLAR",
	}
	f := fields(t, ValidateCreateTransaction(bad))
	for _, k := range []string{"ts", "accountId", "assetSymbol", "side", "qty", "priceQuote", "quoteCcy"} {
		assert.Contains(t, f, k)
	}

	f = fields(t, ValidateCreateTransaction(request.CreateTransactionRequest{}))
	assert.Equal(t, "ts is required", f["ts"])
	assert.Equal(t, "side is required", f["side"])
}

func TestValidateUpdateTransaction(t *testing.T) {
	assert.NoError(t, ValidateUpdateTransaction(request.UpdateTransactionRequest{}))

	side := "transfer_out"
	assert.NoError(t, ValidateUpdateTransaction(request.UpdateTransactionRequest{Side: &side}))

	zero := decimal.Zero
	badSide := "gift"
	f := fields(t, ValidateUpdateTransaction(request.UpdateTransactionRequest{Quantity: &zero, Side: &badSide}))
	assert.Contains(t, f, "qty")
	assert.Contains(t, f, "side")

	badFee := "BNB/USD"
	f = fields(t, ValidateUpdateTransaction(request.UpdateTransactionRequest{FeeAsset: &badFee}))
	assert.Equal(t, "invalid fee asset", f["feeAsset"])

	assert.NoError(t, ValidateUpdateTransaction(request.UpdateTransactionRequest{
		Clear: []string{request.ClearPriceQuote, request.ClearFee},
	}))

	price := decimal.NewFromInt(10)
	f = fields(t, ValidateUpdateTransaction(request.UpdateTransactionRequest{
		PriceQuote: &price,
		Clear:      []string{request.ClearPriceQuote},
	}))
	assert.Contains(t, f["clear"], "priceQuote")

	f = fields(t, ValidateUpdateTransaction(request.UpdateTransactionRequest{Clear: []string{"note"}}))
	assert.Contains(t, f["clear"], "must be one of")
}

func TestValidateTransactionFeeInTradedAsset(t *testing.T) {
	fee := decimal.NewFromInt(1)
	req := request.CreateTransactionRequest{
		Timestamp:   "2024-01-01",
		AccountID:   1,
		AssetSymbol: "BTC",
		Side:        "buy",
		Quantity:    decimal.NewFromInt(1),
		FeeQuantity: &fee,
		FeeAsset:    "btc",
	}
	f := fields(t, ValidateCreateTransaction(req))
	assert.Equal(t, errFeeConsumesQuantity, f["feeQty"])

	req.Side = "sell"
	assert.NoError(t, ValidateCreateTransaction(req), "a sell may pay its whole proceeds in fees")

	req.Side = "transfer_in"
	req.FeeAsset = "BNB"
	assert.NoError(t, ValidateCreateTransaction(req), "fees in another asset do not reduce quantity")

	tx := model.Transaction{
		AssetSymbol: "ETH",
		Side:        model.SideTransferIn,
		Quantity:    decimal.NewFromInt(2),
		FeeQuantity: decimal.NewNullDecimal(decimal.NewFromInt(3)),
		FeeAsset:    "ETH",
	}
	assert.Contains(t, fields(t, ValidateNetQuantity(tx)), "feeQty")

	tx.FeeQuantity = decimal.NewNullDecimal(decimal.RequireFromString("1.99"))
	assert.NoError(t, ValidateNetQuantity(tx))
}

func TestValidateAccount(t *testing.T) {
	assert.NoError(t, ValidateCreateAccount(request.CreateAccountRequest{Name: "Kraken", Type: "exchange"}))
	assert.NoError(t, ValidateCreateAccount(request.CreateAccountRequest{Name: "Cold storage"}))

	f := fields(t, ValidateCreateAccount(request.CreateAccountRequest{Name: "  ", Type: "vault"}))
	assert.Equal(t, "name is required", f["name"])
	assert.Contains(t, f, "type")

	empty := ""
	f = fields(t, ValidateUpdateAccount(request.UpdateAccountRequest{Name: &empty}))
	assert.Contains(t, f, "name")
}

func TestValidateSyncHistory(t *testing.T) {
	assert.NoError(t, ValidateSyncHistory(request.SyncHistoryRequest{Asset: "ETH", Start: "2024-01-01", End: "2024-02-01"}))

	f := fields(t, ValidateSyncHistory(request.SyncHistoryRequest{Start: "2024-02-01", End: "2024-01-01", Interval: "1w"}))
	assert.Contains(t, f, "asset")
	assert.Contains(t, f, "end")
	assert.Contains(t, f, "interval")
}
