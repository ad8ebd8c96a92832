package binance

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

func TestSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", Symbol("btc", "usd"))
	assert.Equal(t, "ETHEUR", Symbol("ETH", "EUR"))
	assert.Equal(t, "ETHBTC", Symbol("eth", "btc"))
}

func TestToCandle(t *testing.T) {
	c, err := toCandle(1717200000000, "67000.10", "67500.50")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), c.Timestamp)
	assert.True(t, c.Close.Equal(decimal.RequireFromString("67500.5")))

	_, err = toCandle(0, "1", "abc")
	assert.Error(t, err)
}

func TestGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"symbol": "BTCUSDT", "price": "67123.45000000"}`))
	}))
	defer srv.Close()

	q, err := New(Config{BaseURL: srv.URL}).GetQuote(context.Background(), "BTC", "USD")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("67123.45")))
	assert.Equal(t, "USD", q.QuoteCcy)
}

func TestGetOHLCV_UnsupportedInterval(t *testing.T) {
	_, err := New(Config{}).GetOHLCV(context.Background(), "BTC", time.Now(), time.Now(), "3m", "USD")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedInterval)
}

func TestRegister(t *testing.T) {
	reg := pricing.NewRegistry()
	require.NoError(t, Register(reg, Config{}))
	p, err := reg.Provider(ID)
	require.NoError(t, err)
	assert.Equal(t, ID, p.ID())
}
