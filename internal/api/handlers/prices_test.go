package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/testutil"
)

func TestPriceHandler_Quote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	good := testutil.NewMockProvider("good").WithPrice("42000", testutil.Now())
	bad := testutil.NewMockProvider("bad").WithError(errors.New("boom"))
	svc := testutil.NewTestServices(t, db, testutil.NewMockRegistry(good, bad))
	handler := NewPriceHandler(svc.Prices, time.Minute)

	t.Run("resolves", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Quote(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/price/quote",
			map[string]string{"asset": "btc", "providers": "bad,good"}))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var p model.PricePoint
		testutil.DecodeJSON(t, w, &p)
		assert.Equal(t, "good", p.Source)
		assert.Equal(t, "42000", p.Price.String())
	})

	t.Run("exhausted is 502", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Quote(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/price/quote",
			map[string]string{"asset": "eth", "providers": "bad"}))
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "bad")
	})

	t.Run("missing asset is 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Quote(w, httptest.NewRequest(http.MethodGet, "/api/price/quote", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("lists providers", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Providers(w, httptest.NewRequest(http.MethodGet, "/api/price/providers", nil))
		var ids []string
		testutil.DecodeJSON(t, w, &ids)
		assert.Equal(t, []string{"bad", "good"}, ids)
	})
}

func TestPriceHandler_SyncHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mock := testutil.NewMockProvider("mock").WithCandles(
		model.Candle{Timestamp: testutil.Day(1), Open: decimal.NewFromInt(90), Close: decimal.NewFromInt(100)},
	)
	svc := testutil.NewTestServices(t, db, testutil.NewMockRegistry(mock))
	handler := NewPriceHandler(svc.Prices, time.Minute)

	w := httptest.NewRecorder()
	handler.SyncHistory(w, testutil.NewJSONRequest(t, http.MethodPost, "/api/price/history", map[string]any{
		"asset": "BTC", "start": "2024-01-01", "end": "2024-01-31",
	}, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res model.HistorySyncResult
	testutil.DecodeJSON(t, w, &res)
	assert.Equal(t, 1, res.Stored)

	w = httptest.NewRecorder()
	handler.SyncHistory(w, testutil.NewJSONRequest(t, http.MethodPost, "/api/price/history", map[string]any{
		"asset": "BTC", "start": "2024-02-01", "end": "2024-01-01", "interval": "1w",
	}, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPriceHandler_RefreshAndJournal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, testutil.NewMockRegistry(testutil.NewMockProvider("mock")))
	handler := NewPriceHandler(svc.Prices, time.Minute)
	acc := testutil.NewAccount().Build(t, db)
	testutil.NewTransaction(acc.ID).Buy("ADA", "100").Build(t, db)

	w := httptest.NewRecorder()
	handler.Refresh(w, testutil.NewRequestWithQueryParams(http.MethodPost, "/api/price/refresh",
		map[string]string{"max_age": "10m"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report model.RefreshReport
	testutil.DecodeJSON(t, w, &report)
	assert.Equal(t, 1, report.Checked)
	assert.Len(t, report.Refreshed, 1)

	w = httptest.NewRecorder()
	handler.Refresh(w, testutil.NewRequestWithQueryParams(http.MethodPost, "/api/price/refresh",
		map[string]string{"max_age": "soon"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	handler.Journal(w, httptest.NewRequest(http.MethodGet, "/api/price/journal", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
