package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/testutil"
	"github.com/ndewijer/wealth-tracker/internal/validation"
)

func TestTransactionService_CreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a normalized entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().WithCurrency("EUR").Build(t, db)
		price := dec("25000")

		tx, err := svc.Transactions.CreateTransaction(ctx, request.CreateTransactionRequest{
			Timestamp:   "2024-03-01T10:00:00+01:00",
			AccountID:   acc.ID,
			AssetSymbol: " btc ",
			Side:        "buy",
			Quantity:    dec("0.1"),
			PriceQuote:  &price,
			FeeAsset:    "btc",
			Note:        "<b>DCA</b> & chill",
		})
		require.NoError(t, err)
		assert.NotZero(t, tx.ID)
		assert.Equal(t, "BTC", tx.AssetSymbol)
		assert.Equal(t, "EUR", tx.QuoteCcy)
		assert.Equal(t, "BTC", tx.FeeAsset)
		assert.Equal(t, "DCA & chill", tx.Note)
		assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), tx.Timestamp)

		stored, err := svc.Transactions.GetTransaction(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, tx.Timestamp, stored.Timestamp)
		assertNullDec(t, "25000", stored.PriceQuote)
	})

	t.Run("falls back to the base currency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)

		tx, err := svc.Transactions.CreateTransaction(ctx, request.CreateTransactionRequest{
			Timestamp: "2024-03-01", AccountID: acc.ID, AssetSymbol: "ETH", Side: "transfer_in", Quantity: dec("1"),
		})
		require.NoError(t, err)
		assert.Equal(t, testutil.TestBaseCurrency, tx.QuoteCcy)
		assert.False(t, tx.PriceQuote.Valid)
	})

	t.Run("unknown account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)

		_, err := svc.Transactions.CreateTransaction(ctx, request.CreateTransactionRequest{
			Timestamp: "2024-03-01", AccountID: 99, AssetSymbol: "ETH", Side: "buy", Quantity: dec("1"),
		})
		assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	})

	t.Run("prices a recent unpriced trade from the latest quote", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockProvider("mock").WithPrice("31000", testutil.Now())
		svc := testutil.NewTestServices(t, db, testutil.NewMockRegistry(mock))
		acc := testutil.NewAccount().Build(t, db)

		tx, err := svc.Transactions.CreateTransaction(ctx, request.CreateTransactionRequest{
			Timestamp: testutil.Now().Format(time.RFC3339), AccountID: acc.ID, AssetSymbol: "BTC", Side: "buy", Quantity: dec("1"),
		})
		require.NoError(t, err)
		assertNullDec(t, "31000", tx.PriceQuote)
	})

	t.Run("leaves old or unresolvable trades unpriced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockProvider("mock").WithError(errors.New("offline"))
		svc := testutil.NewTestServices(t, db, testutil.NewMockRegistry(mock))
		acc := testutil.NewAccount().Build(t, db)

		tx, err := svc.Transactions.CreateTransaction(ctx, request.CreateTransactionRequest{
			Timestamp: testutil.Now().Format(time.RFC3339), AccountID: acc.ID, AssetSymbol: "BTC", Side: "sell", Quantity: dec("1"),
		})
		require.NoError(t, err)
		assert.False(t, tx.PriceQuote.Valid)
		assert.Equal(t, 1, mock.QuoteCalls)

		_, err = svc.Transactions.CreateTransaction(ctx, request.CreateTransactionRequest{
			Timestamp: "2020-01-01", AccountID: acc.ID, AssetSymbol: "BTC", Side: "buy", Quantity: dec("1"),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, mock.QuoteCalls)
	})

	t.Run("asks the datasource provider first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		alpha := testutil.NewMockProvider("alpha").WithPrice("30000", testutil.Now())
		beta := testutil.NewMockProvider("beta").WithPrice("30100", testutil.Now())
		svc := testutil.NewTestServices(t, db, testutil.NewMockRegistry(alpha, beta))
		acc := testutil.NewAccount().Build(t, db)

		tx, err := svc.Transactions.CreateTransaction(ctx, request.CreateTransactionRequest{
			Timestamp: testutil.Now().Format(time.RFC3339), AccountID: acc.ID, AssetSymbol: "BTC", Side: "buy",
			Quantity: dec("1"), Datasource: "beta",
		})
		require.NoError(t, err)
		assertNullDec(t, "30100", tx.PriceQuote)
		assert.Equal(t, 0, alpha.QuoteCalls)

		tx, err = svc.Transactions.CreateTransaction(ctx, request.CreateTransactionRequest{
			Timestamp: testutil.Now().Format(time.RFC3339), AccountID: acc.ID, AssetSymbol: "ETH", Side: "buy",
			Quantity: dec("1"), Datasource: "ledger-csv",
		})
		require.NoError(t, err)
		assertNullDec(t, "30000", tx.PriceQuote)
		assert.Equal(t, 1, alpha.QuoteCalls)
	})

	t.Run("rejects a fee that consumes the bought quantity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)
		fee := dec("1")

		_, err := svc.Transactions.CreateTransaction(ctx, request.CreateTransactionRequest{
			Timestamp: "2024-03-01", AccountID: acc.ID, AssetSymbol: "ETH", Side: "buy", Quantity: dec("1"),
			FeeQuantity: &fee, FeeAsset: "eth",
		})
		var verr *validation.Error
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "feeQty")
	})

	t.Run("rejects duplicate imports", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)
		req := request.CreateTransactionRequest{
			Timestamp: "2024-03-01", AccountID: acc.ID, AssetSymbol: "ETH", Side: "buy", Quantity: dec("1"),
			Datasource: "kraken", ExternalID: "T-1",
		}

		_, err := svc.Transactions.CreateTransaction(ctx, req)
		require.NoError(t, err)
		_, err = svc.Transactions.CreateTransaction(ctx, req)
		assert.ErrorIs(t, err, apperrors.ErrDuplicateEntry)
	})
}

func TestTransactionService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, nil)
	acc := testutil.NewAccount().Build(t, db)
	other := testutil.NewAccount().Build(t, db)
	tx := testutil.NewTransaction(acc.ID).Buy("BTC", "1").Build(t, db)

	qty := decimal.RequireFromString("2.5")
	side := string(model.SideSell)
	note := "moved"
	updated, err := svc.Transactions.UpdateTransaction(ctx, tx.ID, request.UpdateTransactionRequest{
		Quantity: &qty, Side: &side, Note: &note, AccountID: &other.ID,
	})
	require.NoError(t, err)
	assertDec(t, "2.5", updated.Quantity)
	assert.Equal(t, model.SideSell, updated.Side)
	assert.Equal(t, other.ID, updated.AccountID)
	assertNullDec(t, "100", updated.PriceQuote)

	missing := int64(999)
	_, err = svc.Transactions.UpdateTransaction(ctx, tx.ID, request.UpdateTransactionRequest{AccountID: &missing})
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)

	_, err = svc.Transactions.UpdateTransaction(ctx, 12345, request.UpdateTransactionRequest{})
	assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)

	require.NoError(t, svc.Transactions.DeleteTransaction(ctx, tx.ID))
	assert.ErrorIs(t, svc.Transactions.DeleteTransaction(ctx, tx.ID), apperrors.ErrTransactionNotFound)
}

func TestTransactionService_UpdateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("clearing the price re-prices a recent trade", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockProvider("mock").WithPrice("31000", testutil.Now())
		svc := testutil.NewTestServices(t, db, testutil.NewMockRegistry(mock))
		acc := testutil.NewAccount().Build(t, db)
		tx := testutil.NewTransaction(acc.ID).Buy("BTC", "1").At(testutil.Now()).Build(t, db)

		note := "price was a typo"
		updated, err := svc.Transactions.UpdateTransaction(ctx, tx.ID, request.UpdateTransactionRequest{
			Note:  &note,
			Clear: []string{request.ClearPriceQuote},
		})
		require.NoError(t, err)
		assertNullDec(t, "31000", updated.PriceQuote)
		assert.Equal(t, 1, mock.QuoteCalls)

		stored, err := svc.Transactions.GetTransaction(ctx, tx.ID)
		require.NoError(t, err)
		assertNullDec(t, "31000", stored.PriceQuote)
	})

	t.Run("clearing leaves an old trade unpriced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockProvider("mock")
		svc := testutil.NewTestServices(t, db, testutil.NewMockRegistry(mock))
		acc := testutil.NewAccount().Build(t, db)
		tx := testutil.NewTransaction(acc.ID).Buy("BTC", "1").WithFee("5", "USD").At(testutil.Day(2)).Build(t, db)

		updated, err := svc.Transactions.UpdateTransaction(ctx, tx.ID, request.UpdateTransactionRequest{
			Clear: []string{request.ClearPriceQuote, request.ClearTotalQuote, request.ClearFee},
		})
		require.NoError(t, err)
		assert.False(t, updated.PriceQuote.Valid)
		assert.False(t, updated.TotalQuote.Valid)
		assert.False(t, updated.FeeQuantity.Valid)
		assert.Empty(t, updated.FeeAsset)
		assert.Zero(t, mock.QuoteCalls)
	})

	t.Run("changes import identity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)
		testutil.NewTransaction(acc.ID).WithExternalID("kraken", "T-1").Build(t, db)
		tx := testutil.NewTransaction(acc.ID).Build(t, db)

		ds, ext, batch := "kraken", "T-2", "batch-7"
		updated, err := svc.Transactions.UpdateTransaction(ctx, tx.ID, request.UpdateTransactionRequest{
			Datasource: &ds, ExternalID: &ext, ImportBatchID: &batch,
		})
		require.NoError(t, err)
		assert.Equal(t, "kraken", updated.Datasource)
		assert.Equal(t, "T-2", updated.ExternalID)
		assert.Equal(t, "batch-7", updated.ImportBatchID)

		taken := "T-1"
		_, err = svc.Transactions.UpdateTransaction(ctx, tx.ID, request.UpdateTransactionRequest{ExternalID: &taken})
		assert.ErrorIs(t, err, apperrors.ErrDuplicateEntry)
	})

	t.Run("rejects a fee that would consume the quantity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, nil)
		acc := testutil.NewAccount().Build(t, db)
		tx := testutil.NewTransaction(acc.ID).Buy("SOL", "2").WithFee("0.1", "SOL").Build(t, db)

		fee := dec("2")
		_, err := svc.Transactions.UpdateTransaction(ctx, tx.ID, request.UpdateTransactionRequest{FeeQuantity: &fee})
		var verr *validation.Error
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "feeQty")

		stored, err := svc.Transactions.GetTransaction(ctx, tx.ID)
		require.NoError(t, err)
		assertNullDec(t, "0.1", stored.FeeQuantity)
	})
}

func TestTransactionService_GetTransactions(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, nil)
	acc := testutil.NewAccount().Build(t, db)
	testutil.NewTransaction(acc.ID).Buy("ETH", "1").At(testutil.Day(3)).Build(t, db)
	testutil.NewTransaction(acc.ID).Buy("BTC", "1").At(testutil.Day(2)).Build(t, db)
	testutil.NewTransaction(acc.ID).Sell("BTC", "1").At(testutil.Day(4)).Build(t, db)

	all, err := svc.Transactions.GetTransactions(ctx, model.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "BTC", all[0].AssetSymbol)
	assert.Equal(t, "ETH", all[1].AssetSymbol)

	sells, err := svc.Transactions.GetTransactions(ctx, model.TransactionFilter{AssetSymbol: "BTC", Side: model.SideSell})
	require.NoError(t, err)
	require.Len(t, sells, 1)
	assert.Equal(t, testutil.Day(4), sells[0].Timestamp)
}
