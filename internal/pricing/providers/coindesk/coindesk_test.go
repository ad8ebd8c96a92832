package coindesk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/pricing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIKey: "secret", Timeout: time.Second})
}

func TestLimit(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, Limit(start, start, time.Hour))
	assert.Equal(t, 8, Limit(start, start.AddDate(0, 0, 7), 24*time.Hour))
	assert.Equal(t, maxLimit, Limit(start, start.AddDate(10, 0, 0), time.Hour))
	assert.Equal(t, 1, Limit(start, start.Add(-time.Hour), time.Hour))
}

func TestGetQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/index/cc/v1/latest/tick", r.URL.Path)
		assert.Equal(t, "BTC-EUR", r.URL.Query().Get("instruments"))
		assert.Equal(t, "cadli", r.URL.Query().Get("market"))
		assert.Equal(t, "Apikey secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"Data": {"BTC-EUR": {"VALUE": 61234.56, "VALUE_LAST_UPDATE_TS": 1717243200}}, "Err": {}}`))
	})

	q, err := c.GetQuote(context.Background(), "btc", "eur")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("61234.56")))
	assert.Equal(t, time.Unix(1717243200, 0).UTC(), q.Timestamp)
	assert.Equal(t, "BTC", q.AssetSymbol)
}

func TestGetQuote_Error(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Data": {}, "Err": {"type": 2, "message": "instrument not found"}}`))
	})

	_, err := c.GetQuote(context.Background(), "NOPE", "USD")
	assert.ErrorContains(t, err, "instrument not found")
}

func TestGetOHLCV(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/index/cc/v1/historical/days", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"Data": [
			{"TIMESTAMP": 1717286400, "OPEN": 2, "CLOSE": 3},
			{"TIMESTAMP": 1717200000, "OPEN": 1, "CLOSE": 2},
			{"TIMESTAMP": 1717113600, "OPEN": 0.5, "CLOSE": 1}
		]}`))
	})

	candles, err := c.GetOHLCV(context.Background(), "BTC", start, end, pricing.IntervalDay, "USD")
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, start, candles[0].Timestamp)
	assert.True(t, candles[1].Close.Equal(decimal.NewFromInt(3)))
}

func TestGetOHLCV_UnsupportedInterval(t *testing.T) {
	c := New(Config{})
	_, err := c.GetOHLCV(context.Background(), "BTC", time.Now(), time.Now(), "1w", "USD")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedInterval)
}
