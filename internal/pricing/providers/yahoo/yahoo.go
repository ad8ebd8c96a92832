// Package yahoo implements a price provider on top of the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/pricing"
	"github.com/ndewijer/wealth-tracker/internal/pricing/providers/fetch"
)

// ID is the registry id of this provider.
const ID = "yahoo"

// DefaultBaseURL is the public chart endpoint host.
const DefaultBaseURL = "https://query2.finance.yahoo.com"

// Config configures the provider.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// FinanceClient fetches chart data for crypto pairs such as BTC-USD.
type FinanceClient struct {
	baseURL string
	client  *fetch.Client
}

// NewFinanceClient creates a new Yahoo Finance client.
//
// The client sends a browser User-Agent; Yahoo rejects requests without one.
//
// Parameters:
//   - cfg: Base URL (defaults to DefaultBaseURL) and request timeout
//
// Returns:
//   - *FinanceClient: A new client instance ready for use
func NewFinanceClient(cfg Config) *FinanceClient {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &FinanceClient{
		baseURL: strings.TrimRight(base, "/"),
		client: fetch.New(cfg.Timeout, map[string]string{
			"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		}),
	}
}

// Register adds the provider to reg.
func Register(reg *pricing.Registry, cfg Config) error {
	return reg.Register(ID, func() (pricing.Provider, error) {
		return NewFinanceClient(cfg), nil
	})
}

// ID returns the registry id.
func (c *FinanceClient) ID() string {
	return ID
}

// GetQuote returns the regular market price of symbol in quote.
//
// The price comes from the chart metadata; when Yahoo omits it the last
// complete daily close of the past five days is used instead.
//
// Parameters:
//   - ctx: Request context
//   - symbol: Asset symbol, e.g. "BTC"
//   - quote: Quote currency, e.g. "USD"
//
// Returns:
//   - model.PricePoint: Price and observation time
//   - error: If the request fails or Yahoo has no data for the pair
func (c *FinanceClient) GetQuote(ctx context.Context, symbol, quote string) (model.PricePoint, error) {
	resp, err := c.query(ctx, pair(symbol, quote), url.Values{"interval": {"1d"}, "range": {"5d"}})
	if err != nil {
		return model.PricePoint{}, err
	}
	result := resp.Chart.Result[0]

	if p := result.Meta.RegularMarketPrice; p != nil && *p > 0 {
		return model.PricePoint{
			AssetSymbol: symbol,
			QuoteCcy:    quote,
			Price:       decimal.NewFromFloat(*p),
			Timestamp:   time.Unix(result.Meta.RegularMarketTime, 0).UTC(),
			Source:      ID,
		}, nil
	}

	chart, err := ParseChart(result)
	if err != nil {
		return model.PricePoint{}, err
	}
	last := chart.Indicators[len(chart.Indicators)-1]
	return model.PricePoint{
		AssetSymbol: symbol,
		QuoteCcy:    quote,
		Price:       decimal.NewFromFloat(last.PriceClose),
		Timestamp:   last.Date,
		Source:      ID,
	}, nil
}

// GetOHLCV returns candles of symbol in quote between start and end.
//
// Parameters:
//   - interval: pricing.IntervalDay or pricing.IntervalHour
//
// Returns:
//   - []model.Candle: Candles in ascending order, incomplete ones dropped
//   - error: If the interval is unsupported, the request fails or no data exists
func (c *FinanceClient) GetOHLCV(ctx context.Context, symbol string, start, end time.Time, interval, quote string) ([]model.Candle, error) {
	if interval != pricing.IntervalDay && interval != pricing.IntervalHour {
		return nil, errors.Wrap(apperrors.ErrUnsupportedInterval, interval)
	}
	resp, err := c.query(ctx, pair(symbol, quote), url.Values{
		"interval": {interval},
		"period1":  {fmt.Sprint(start.Unix())},
		"period2":  {fmt.Sprint(end.Unix())},
	})
	if err != nil {
		return nil, err
	}

	chart, err := ParseChart(resp.Chart.Result[0])
	if err != nil {
		return nil, err
	}
	candles := make([]model.Candle, 0, len(chart.Indicators))
	for _, ind := range chart.Indicators {
		if ind.Date.Before(start) || ind.Date.After(end) {
			continue
		}
		candles = append(candles, model.Candle{
			Timestamp: ind.Date,
			Open:      decimal.NewFromFloat(ind.PriceOpen),
			Close:     decimal.NewFromFloat(ind.PriceClose),
		})
	}
	return candles, nil
}

// ParseChart converts a raw chart result into candles.
//
// The method validates that:
//   - Timestamp data is present
//   - Close price data is present
//   - Data arrays have matching lengths
//
// Candles whose close is null are skipped.
func ParseChart(result Result) (PriceChart, error) {
	if len(result.Timestamp) == 0 {
		return PriceChart{}, apperrors.ErrEmptyResult
	}
	if len(result.Indicators.Quote) == 0 || len(result.Indicators.Quote[0].Close) == 0 {
		return PriceChart{}, errors.New("no close prices returned")
	}
	q := result.Indicators.Quote[0]
	if len(q.Close) != len(result.Timestamp) {
		return PriceChart{}, errors.New("mismatched data lengths")
	}

	indicators := make([]Indicators, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if q.Close[i] == nil {
			continue
		}
		ind := Indicators{Date: time.Unix(ts, 0).UTC(), PriceClose: *q.Close[i]}
		if i < len(q.Open) && q.Open[i] != nil {
			ind.PriceOpen = *q.Open[i]
		}
		indicators = append(indicators, ind)
	}
	if len(indicators) == 0 {
		return PriceChart{}, apperrors.ErrEmptyResult
	}

	return PriceChart{
		Symbol:     result.Meta.Symbol,
		Currency:   result.Meta.Currency,
		Indicators: indicators,
	}, nil
}

// query executes a chart request and checks for API errors.
func (c *FinanceClient) query(ctx context.Context, symbol string, params url.Values) (Response, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var response Response
	err := c.client.GetJSON(ctx, u, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(&response)
	})
	if err != nil {
		return Response{}, errors.Wrap(err, "yahoo chart")
	}
	if response.Chart.Error != nil {
		return Response{}, errors.Errorf("yahoo error: %s", response.Chart.Error.Description)
	}
	if len(response.Chart.Result) == 0 {
		return Response{}, errors.Wrapf(apperrors.ErrEmptyResult, "no results returned for %s", symbol)
	}
	return response, nil
}

func pair(symbol, quote string) string {
	return strings.ToUpper(symbol) + "-" + strings.ToUpper(quote)
}
