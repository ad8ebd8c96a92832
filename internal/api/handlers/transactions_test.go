package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/testutil"
)

func TestTransactionHandler_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, nil)
	handler := NewTransactionHandler(svc.Transactions)
	acc := testutil.NewAccount().Build(t, db)

	t.Run("creates an entry", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.CreateTransaction(w, testutil.NewJSONRequest(t, http.MethodPost, "/api/transaction", map[string]any{
			"ts":          "2024-02-01T12:00:00Z",
			"accountId":   acc.ID,
			"assetSymbol": "eth",
			"side":        "buy",
			"qty":         "2",
			"totalQuote":  "5000",
			"feeQty":      "1.5",
			"feeAsset":    "USD",
		}, nil))

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var tx model.Transaction
		testutil.DecodeJSON(t, w, &tx)
		assert.Equal(t, "ETH", tx.AssetSymbol)
		assert.Equal(t, "USD", tx.QuoteCcy)
		assert.Equal(t, "5000", tx.TotalQuote.Decimal.String())
	})

	t.Run("validation errors are 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.CreateTransaction(w, testutil.NewJSONRequest(t, http.MethodPost, "/api/transaction", map[string]any{
			"ts": "yesterday", "accountId": acc.ID, "assetSymbol": "ETH", "side": "swap", "qty": "-1",
		}, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown account is 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.CreateTransaction(w, testutil.NewJSONRequest(t, http.MethodPost, "/api/transaction", map[string]any{
			"ts": "2024-02-01", "accountId": 999, "assetSymbol": "ETH", "side": "buy", "qty": "1",
		}, nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTransactionHandler_ListGetUpdateDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, nil)
	handler := NewTransactionHandler(svc.Transactions)
	acc := testutil.NewAccount().Build(t, db)
	buy := testutil.NewTransaction(acc.ID).Buy("BTC", "1").At(testutil.Day(1)).Build(t, db)
	testutil.NewTransaction(acc.ID).Sell("BTC", "0.5").At(testutil.Day(2)).Build(t, db)

	t.Run("lists with filters", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Transactions(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/transaction",
			map[string]string{"asset": "btc", "side": "sell"}))
		require.Equal(t, http.StatusOK, w.Code)
		var list []model.Transaction
		testutil.DecodeJSON(t, w, &list)
		require.Len(t, list, 1)
		assert.Equal(t, model.SideSell, list[0].Side)

		w = httptest.NewRecorder()
		handler.Transactions(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/transaction",
			map[string]string{"account_id": "zero"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	params := map[string]string{"transactionId": strconv.FormatInt(buy.ID, 10)}

	t.Run("gets and updates", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetTransaction(w, testutil.NewRequestWithURLParams(http.MethodGet, "/api/transaction/x", params))
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		handler.UpdateTransaction(w, testutil.NewJSONRequest(t, http.MethodPut, "/api/transaction/x",
			map[string]any{"note": "first buy"}, params))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var tx model.Transaction
		testutil.DecodeJSON(t, w, &tx)
		assert.Equal(t, "first buy", tx.Note)
	})

	t.Run("clears the price", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.UpdateTransaction(w, testutil.NewJSONRequest(t, http.MethodPut, "/api/transaction/x",
			map[string]any{"clear": []string{"priceQuote"}, "importBatchId": "b-1"}, params))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var tx model.Transaction
		testutil.DecodeJSON(t, w, &tx)
		assert.False(t, tx.PriceQuote.Valid)
		assert.Equal(t, "b-1", tx.ImportBatchID)
		assert.Equal(t, "first buy", tx.Note)
	})

	t.Run("rejects a fee paid in the whole quantity", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.UpdateTransaction(w, testutil.NewJSONRequest(t, http.MethodPut, "/api/transaction/x",
			map[string]any{"feeQty": "1", "feeAsset": "BTC"}, params))
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "feeQty")
	})

	t.Run("deletes", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.DeleteTransaction(w, testutil.NewRequestWithURLParams(http.MethodDelete, "/api/transaction/x", params))
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = httptest.NewRecorder()
		handler.GetTransaction(w, testutil.NewRequestWithURLParams(http.MethodGet, "/api/transaction/x", params))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
