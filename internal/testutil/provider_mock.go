package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/pricing"
)

// CallLog records the order in which mock providers were called.
type CallLog struct {
	mu    sync.Mutex
	calls []string
}

// Record appends id to the log.
func (l *CallLog) Record(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, id)
}

// Calls returns a copy of the recorded ids.
func (l *CallLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Reset clears the log.
func (l *CallLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

// MockProvider is a scripted pricing.Provider.
//
// Example usage:
//
//	log := &testutil.CallLog{}
//	failing := testutil.NewMockProvider("a").WithError(errors.New("down")).WithCallLog(log)
//	working := testutil.NewMockProvider("b").WithPrice("42000", time.Now()).WithCallLog(log)
type MockProvider struct {
	mu         sync.Mutex
	id         string
	price      decimal.Decimal
	ts         time.Time
	candles    []model.Candle
	err        error
	empty      bool
	log        *CallLog
	QuoteCalls int
	OHLCVCalls int
}

// NewMockProvider creates a provider that returns a price of 100 observed now.
func NewMockProvider(id string) *MockProvider {
	return &MockProvider{
		id:    id,
		price: decimal.NewFromInt(100),
		ts:    time.Now().UTC().Truncate(time.Second),
	}
}

// WithPrice configures the quote returned by GetQuote.
func (m *MockProvider) WithPrice(price string, ts time.Time) *MockProvider {
	m.price = decimal.RequireFromString(price)
	m.ts = ts
	return m
}

// WithCandles configures the candles returned by GetOHLCV.
func (m *MockProvider) WithCandles(candles ...model.Candle) *MockProvider {
	m.candles = candles
	return m
}

// WithError configures the mock to fail every call.
func (m *MockProvider) WithError(err error) *MockProvider {
	m.err = err
	return m
}

// WithEmptyResponse configures the mock to answer without data.
func (m *MockProvider) WithEmptyResponse() *MockProvider {
	m.empty = true
	return m
}

// WithCallLog shares a call log between several mocks.
func (m *MockProvider) WithCallLog(log *CallLog) *MockProvider {
	m.log = log
	return m
}

// Factory returns a pricing.Factory yielding this mock.
func (m *MockProvider) Factory() pricing.Factory {
	return func() (pricing.Provider, error) {
		return m, nil
	}
}

func (m *MockProvider) ID() string {
	return m.id
}

func (m *MockProvider) GetQuote(_ context.Context, symbol, quote string) (model.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QuoteCalls++
	if m.log != nil {
		m.log.Record(m.id)
	}
	if m.err != nil {
		return model.PricePoint{}, m.err
	}
	if m.empty {
		return model.PricePoint{}, nil
	}
	return model.PricePoint{AssetSymbol: symbol, QuoteCcy: quote, Price: m.price, Timestamp: m.ts, Source: m.id}, nil
}

func (m *MockProvider) GetOHLCV(_ context.Context, _ string, start, end time.Time, _, _ string) ([]model.Candle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OHLCVCalls++
	if m.log != nil {
		m.log.Record(m.id)
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.empty {
		return nil, nil
	}
	var out []model.Candle
	for _, c := range m.candles {
		if c.Timestamp.Before(start) || c.Timestamp.After(end) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// NewMockRegistry registers every mock under its id.
func NewMockRegistry(mocks ...*MockProvider) *pricing.Registry {
	reg := pricing.NewRegistry()
	for _, m := range mocks {
		if err := reg.Register(m.ID(), m.Factory()); err != nil {
			panic(err)
		}
	}
	return reg
}
