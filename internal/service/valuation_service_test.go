package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/testutil"
	"github.com/ndewijer/wealth-tracker/internal/valuation"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func assertNullDec(t *testing.T, want string, got decimal.NullDecimal, msgAndArgs ...any) {
	t.Helper()
	require.True(t, got.Valid, "want %s, got null %v", want, msgAndArgs)
	assertDec(t, want, got.Decimal, msgAndArgs...)
}

func TestValuationService_SummarizePortfolio(t *testing.T) {
	ctx := context.Background()

	t.Run("values FIFO positions with stored prices", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)

		testutil.NewTransaction(acc.ID).Buy("BTC", "1").WithPrice("100").At(testutil.Day(1)).Build(t, db)
		testutil.NewTransaction(acc.ID).Buy("BTC", "1").WithPrice("200").At(testutil.Day(2)).Build(t, db)
		testutil.NewTransaction(acc.ID).Sell("BTC", "1.5").WithPrice("300").At(testutil.Day(3)).Build(t, db)
		testutil.NewPricePoint().For("BTC", "USD").WithPrice("400").At(testutil.Day(4)).Build(t, db)

		summary, err := svc.Valuation.SummarizePortfolio(ctx, testutil.Day(5), "usd", nil)
		require.NoError(t, err)

		assert.Equal(t, "USD", summary.QuoteCcy)
		require.Len(t, summary.Positions, 1)
		pos := summary.Positions[0]
		assert.Equal(t, "BTC", pos.AssetSymbol)
		assertDec(t, "0.5", pos.Quantity)
		assertNullDec(t, "400", pos.Price)
		assertNullDec(t, "200", pos.Value)
		assertNullDec(t, "100", pos.CostOpen)
		assertNullDec(t, "100", pos.UnrealizedPnL)
		// 1 @ 100 and 0.5 @ 200 sold at 300.
		assertDec(t, "250", pos.RealizedPnL)
		assertDec(t, "200", summary.Totals.Value)
		assertDec(t, "250", summary.Totals.RealizedPnL)
		assert.False(t, summary.Totals.Incomplete)
	})

	t.Run("is idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)
		testutil.NewTransaction(acc.ID).Buy("ETH", "2").WithPrice("10").Build(t, db)
		testutil.NewPricePoint().For("ETH", "USD").WithPrice("12").Build(t, db)

		first, err := svc.Valuation.SummarizePortfolio(ctx, testutil.Day(10), "USD", nil)
		require.NoError(t, err)
		second, err := svc.Valuation.SummarizePortfolio(ctx, testutil.Day(10), "USD", nil)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("unpriced positions have no value", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)
		testutil.NewTransaction(acc.ID).Buy("DOGE", "1000").WithPrice("0.1").Build(t, db)

		summary, err := svc.Valuation.SummarizePortfolio(ctx, testutil.Day(2), "USD", nil)
		require.NoError(t, err)
		require.Len(t, summary.Positions, 1)
		pos := summary.Positions[0]
		assert.False(t, pos.Price.Valid)
		assert.False(t, pos.Value.Valid)
		assert.False(t, pos.UnrealizedPnL.Valid)
		assertNullDec(t, "100", pos.CostOpen)
		assert.True(t, summary.Totals.Incomplete)
	})

	t.Run("fee in an unpriced asset leaves cost basis unknown", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)
		testutil.NewTransaction(acc.ID).Buy("BTC", "1").WithPrice("100").WithFee("5", "BNB").At(testutil.Day(1)).Build(t, db)
		testutil.NewPricePoint().For("BTC", "USD").WithPrice("150").At(testutil.Day(2)).Build(t, db)

		summary, err := svc.Valuation.SummarizePortfolio(ctx, testutil.Day(3), "USD", nil)
		require.NoError(t, err)
		require.Len(t, summary.Positions, 1)
		pos := summary.Positions[0]
		assertNullDec(t, "150", pos.Value)
		assert.False(t, pos.CostOpen.Valid)
		assert.False(t, pos.UnrealizedPnL.Valid)
		assert.True(t, summary.Totals.Incomplete)

		testutil.NewPricePoint().For("BNB", "USD").WithPrice("2").At(testutil.Day(1)).AsHistory().Build(t, db)
		summary, err = svc.Valuation.SummarizePortfolio(ctx, testutil.Day(3), "USD", nil)
		require.NoError(t, err)
		assertNullDec(t, "110", summary.Positions[0].CostOpen)
		assertNullDec(t, "40", summary.Positions[0].UnrealizedPnL)
		assert.False(t, summary.Totals.Incomplete)
	})

	t.Run("keeps closed positions with unknown proceeds", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)
		testutil.NewTransaction(acc.ID).Buy("XRP", "10").WithPrice("1").At(testutil.Day(1)).Build(t, db)
		testutil.NewTransaction(acc.ID).TransferOut("XRP", "10").At(testutil.Day(2)).Build(t, db)

		summary, err := svc.Valuation.SummarizePortfolio(ctx, testutil.Day(3), "USD", nil)
		require.NoError(t, err)
		require.Len(t, summary.Positions, 1)
		pos := summary.Positions[0]
		assert.Equal(t, "XRP", pos.AssetSymbol)
		assert.True(t, pos.Quantity.IsZero())
		assert.True(t, pos.RealizedIncomplete)
		assert.True(t, summary.Totals.Incomplete)
	})

	t.Run("buy eaten by its own fee names the entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)
		testutil.NewTransaction(acc.ID).Buy("ETH", "1").Build(t, db)
		bad := testutil.NewTransaction(acc.ID).Buy("BTC", "1").WithFee("1", "BTC").At(testutil.Day(2)).Build(t, db)

		_, err := svc.Valuation.SummarizePortfolio(ctx, testutil.Day(3), "USD", nil)
		assert.ErrorIs(t, err, apperrors.ErrLedgerInconsistency)
		var netErr *apperrors.InvalidNetQuantityError
		require.ErrorAs(t, err, &netErr)
		assert.Equal(t, bad.ID, netErr.TransactionID)
		assert.Equal(t, "BTC", netErr.Asset)
	})

	t.Run("ignores prices observed after as_of", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)
		testutil.NewTransaction(acc.ID).Buy("BTC", "1").Build(t, db)
		testutil.NewPricePoint().WithPrice("150").At(testutil.Day(3)).AsHistory().Build(t, db)
		testutil.NewPricePoint().WithPrice("500").At(testutil.Day(20)).Build(t, db)

		summary, err := svc.Valuation.SummarizePortfolio(ctx, testutil.Day(5), "USD", nil)
		require.NoError(t, err)
		assertNullDec(t, "150", summary.Positions[0].Price)

		summary, err = svc.Valuation.SummarizePortfolio(ctx, testutil.Day(25), "USD", nil)
		require.NoError(t, err)
		assertNullDec(t, "500", summary.Positions[0].Price)
	})

	t.Run("oversold ledger fails with inconsistency details", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)
		testutil.NewTransaction(acc.ID).Buy("BTC", "1").At(testutil.Day(1)).Build(t, db)
		sell := testutil.NewTransaction(acc.ID).Sell("BTC", "1.25").At(testutil.Day(2)).Build(t, db)

		_, err := svc.Valuation.SummarizePortfolio(ctx, testutil.Day(3), "USD", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrLedgerInconsistency)

		var inc *apperrors.LedgerInconsistencyError
		require.True(t, errors.As(err, &inc))
		assert.Equal(t, sell.ID, inc.TransactionID)
		assertDec(t, "0.25", inc.Shortfall)

		// Before the sell the ledger is consistent.
		_, err = svc.Valuation.SummarizePortfolio(ctx, testutil.Day(1), "USD", nil)
		assert.NoError(t, err)
	})

	t.Run("filters by account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		a := testutil.NewAccount().Build(t, db)
		b := testutil.NewAccount().Build(t, db)
		testutil.NewTransaction(a.ID).Buy("BTC", "1").Build(t, db)
		testutil.NewTransaction(b.ID).Buy("ETH", "3").Build(t, db)

		summary, err := svc.Valuation.SummarizePortfolio(ctx, testutil.Day(2), "USD", &b.ID)
		require.NoError(t, err)
		require.Len(t, summary.Positions, 1)
		assert.Equal(t, "ETH", summary.Positions[0].AssetSymbol)
		assert.Equal(t, &b.ID, summary.AccountID)
	})

	t.Run("values third-asset fees from stored prices", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)
		testutil.NewPricePoint().For("BNB", "USD").WithPrice("300").At(testutil.Day(1)).AsHistory().Build(t, db)
		testutil.NewTransaction(acc.ID).Buy("ETH", "1").WithPrice("1000").WithFee("0.01", "BNB").At(testutil.Day(2)).Build(t, db)

		summary, err := svc.Valuation.SummarizePortfolio(ctx, testutil.Day(3), "USD", nil)
		require.NoError(t, err)
		assertNullDec(t, "1003", summary.Positions[0].CostOpen)
	})

	t.Run("defaults to the base currency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)

		summary, err := svc.Valuation.SummarizePortfolio(ctx, testutil.Day(3), "", nil)
		require.NoError(t, err)
		assert.Equal(t, testutil.TestBaseCurrency, summary.QuoteCcy)
		assert.Empty(t, summary.Positions)
		assertDec(t, "0", summary.Totals.Value)
	})
}

func TestValuationService_ComputeHoldings(t *testing.T) {
	ctx := context.Background()

	t.Run("transfers between accounts under both policies", func(t *testing.T) {
		for _, policy := range []valuation.TransferPolicy{valuation.TransferAsAcquisition, valuation.TransferCarryBasis} {
			t.Run(policy.String(), func(t *testing.T) {
				db := testutil.SetupTestDB(t)
				svc := testutil.NewTestServicesWithPolicy(t, db, nil, policy)
				exchange := testutil.NewAccount().Build(t, db)
				wallet := testutil.NewAccount().WithType(model.AccountTypeWallet).Build(t, db)

				testutil.NewTransaction(exchange.ID).Buy("BTC", "2").At(testutil.Day(1)).Build(t, db)
				testutil.NewTransaction(exchange.ID).TransferOut("BTC", "0.5").At(testutil.Day(2)).Build(t, db)
				testutil.NewTransaction(wallet.ID).TransferIn("BTC", "0.5").At(testutil.Day(2).Add(time.Hour)).Build(t, db)

				all, err := svc.Valuation.ComputeHoldings(ctx, testutil.Day(3), nil)
				require.NoError(t, err)
				assertDec(t, "2", all["BTC"])

				onExchange, err := svc.Valuation.ComputeHoldings(ctx, testutil.Day(3), &exchange.ID)
				require.NoError(t, err)
				assertDec(t, "1.5", onExchange["BTC"])

				inWallet, err := svc.Valuation.ComputeHoldings(ctx, testutil.Day(3), &wallet.ID)
				require.NoError(t, err)
				assertDec(t, "0.5", inWallet["BTC"])
			})
		}
	})

	t.Run("omits closed positions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)
		testutil.NewTransaction(acc.ID).Buy("SOL", "4").At(testutil.Day(1)).Build(t, db)
		testutil.NewTransaction(acc.ID).Sell("SOL", "4").At(testutil.Day(2)).Build(t, db)

		holdings, err := svc.Valuation.ComputeHoldings(ctx, testutil.Day(3), nil)
		require.NoError(t, err)
		assert.Empty(t, holdings)

		holdings, err = svc.Valuation.ComputeHoldings(ctx, testutil.Day(1), nil)
		require.NoError(t, err)
		assertDec(t, "4", holdings["SOL"])
	})
}
