// Package coinmarketcap implements a price provider for the CoinMarketCap Pro API.
package coinmarketcap

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/pricing"
	"github.com/ndewijer/wealth-tracker/internal/pricing/providers/fetch"
)

// ID is the registry id of this provider.
const ID = "coinmarketcap"

// API hosts.
const (
	ProductionURL = "https://pro-api.coinmarketcap.com"
	SandboxURL    = "https://sandbox-api.coinmarketcap.com"
)

// Config configures the provider. BaseURL wins over UseSandbox.
type Config struct {
	APIKey     string
	BaseURL    string
	UseSandbox bool
	Timeout    time.Duration
}

// URL returns the effective base URL.
func (c Config) URL() string {
	switch {
	case c.BaseURL != "":
		return strings.TrimRight(c.BaseURL, "/")
	case c.UseSandbox:
		return SandboxURL
	default:
		return ProductionURL
	}
}

// Client talks to CoinMarketCap.
type Client struct {
	baseURL string
	client  *fetch.Client
}

// New creates a client. An API key is required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.Wrap(apperrors.ErrMissingAPIKey, ID)
	}
	return &Client{
		baseURL: cfg.URL(),
		client:  fetch.New(cfg.Timeout, map[string]string{"X-CMC_PRO_API_KEY": cfg.APIKey}),
	}, nil
}

// Register adds the provider to reg.
func Register(reg *pricing.Registry, cfg Config) error {
	return reg.Register(ID, func() (pricing.Provider, error) {
		return New(cfg)
	})
}

func (c *Client) ID() string {
	return ID
}

func (c *Client) GetQuote(ctx context.Context, symbol, quote string) (model.PricePoint, error) {
	symbol, quote = strings.ToUpper(symbol), strings.ToUpper(quote)
	params := url.Values{"symbol": {symbol}, "convert": {quote}}

	doc, err := c.get(ctx, "/v2/cryptocurrency/quotes/latest", params)
	if err != nil {
		return model.PricePoint{}, err
	}

	base := fmt.Sprintf(`$.data[%q][0].quote[%q]`, symbol, quote)
	price, err := fetch.DecimalAt(doc, base+".price")
	if err != nil {
		return model.PricePoint{}, err
	}
	ts, err := fetch.TimeAt(doc, base+".last_updated")
	if err != nil {
		ts = time.Time{}
	}
	return model.PricePoint{AssetSymbol: symbol, QuoteCcy: quote, Price: price, Timestamp: ts, Source: ID}, nil
}

func (c *Client) GetOHLCV(ctx context.Context, symbol string, start, end time.Time, interval, quote string) ([]model.Candle, error) {
	period, ok := map[string]string{pricing.IntervalDay: "daily", pricing.IntervalHour: "hourly"}[interval]
	if !ok {
		return nil, errors.Wrap(apperrors.ErrUnsupportedInterval, interval)
	}
	symbol, quote = strings.ToUpper(symbol), strings.ToUpper(quote)
	params := url.Values{
		"symbol":      {symbol},
		"convert":     {quote},
		"time_start":  {start.UTC().Format(time.RFC3339)},
		"time_end":    {end.UTC().Format(time.RFC3339)},
		"time_period": {period},
		"interval":    {period},
	}

	doc, err := c.get(ctx, "/v2/cryptocurrency/ohlcv/historical", params)
	if err != nil {
		return nil, err
	}
	items, err := fetch.List(doc, fmt.Sprintf(`$.data[%q][0].quotes[*]`, symbol))
	if err != nil {
		return nil, err
	}

	candles := make([]model.Candle, 0, len(items))
	for _, item := range items {
		ts, err := fetch.TimeAt(item, "$.time_close")
		if err != nil {
			return nil, err
		}
		closePrice, err := fetch.DecimalAt(item, fmt.Sprintf(`$.quote[%q].close`, quote))
		if err != nil {
			return nil, err
		}
		openPrice, _ := fetch.DecimalAt(item, fmt.Sprintf(`$.quote[%q].open`, quote))
		candles = append(candles, model.Candle{Timestamp: ts, Open: openPrice, Close: closePrice})
	}
	return candles, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (any, error) {
	var doc any
	err := c.client.GetJSON(ctx, c.baseURL+path+"?"+params.Encode(), func(r io.Reader) error {
		var err error
		doc, err = fetch.DecodeGeneric(r)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, ID)
	}

	if code, err := fetch.DecimalAt(doc, "$.status.error_code"); err == nil && !code.IsZero() {
		msg, _ := fetch.Path(doc, "$.status.error_message")
		return nil, errors.Errorf("%s error %s: %v", ID, code, msg)
	}
	return doc, nil
}
