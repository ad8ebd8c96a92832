// Package coindesk implements a price provider for the CoinDesk data API
// using the CADLI index.
package coindesk

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/pricing"
	"github.com/ndewijer/wealth-tracker/internal/pricing/providers/fetch"
)

// ID is the registry id of this provider.
const ID = "coindesk"

// DefaultBaseURL is the public data API host.
const DefaultBaseURL = "https://data-api.coindesk.com"

const (
	market   = "cadli"
	maxLimit = 2000
)

// Config configures the provider. The API key is optional.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client talks to the CoinDesk index endpoints.
type Client struct {
	baseURL string
	client  *fetch.Client
}

// New creates a client.
func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Apikey " + cfg.APIKey
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		client:  fetch.New(cfg.Timeout, headers),
	}
}

// Register adds the provider to reg.
func Register(reg *pricing.Registry, cfg Config) error {
	return reg.Register(ID, func() (pricing.Provider, error) {
		return New(cfg), nil
	})
}

func (c *Client) ID() string {
	return ID
}

func (c *Client) GetQuote(ctx context.Context, symbol, quote string) (model.PricePoint, error) {
	instrument := Instrument(symbol, quote)
	params := url.Values{"market": {market}, "instruments": {instrument}}

	doc, err := c.get(ctx, "/index/cc/v1/latest/tick", params)
	if err != nil {
		return model.PricePoint{}, err
	}

	base := fmt.Sprintf(`$.Data[%q]`, instrument)
	price, err := fetch.DecimalAt(doc, base+".VALUE")
	if err != nil {
		return model.PricePoint{}, err
	}
	ts, err := fetch.TimeAt(doc, base+".VALUE_LAST_UPDATE_TS")
	if err != nil {
		ts = time.Time{}
	}
	return model.PricePoint{
		AssetSymbol: strings.ToUpper(symbol),
		QuoteCcy:    strings.ToUpper(quote),
		Price:       price,
		Timestamp:   ts,
		Source:      ID,
	}, nil
}

func (c *Client) GetOHLCV(ctx context.Context, symbol string, start, end time.Time, interval, quote string) ([]model.Candle, error) {
	var (
		path string
		step time.Duration
	)
	switch interval {
	case pricing.IntervalDay:
		path, step = "/index/cc/v1/historical/days", 24*time.Hour
	case pricing.IntervalHour:
		path, step = "/index/cc/v1/historical/hours", time.Hour
	default:
		return nil, errors.Wrap(apperrors.ErrUnsupportedInterval, interval)
	}

	params := url.Values{
		"market":     {market},
		"instrument": {Instrument(symbol, quote)},
		"limit":      {strconv.Itoa(Limit(start, end, step))},
		"to_ts":      {strconv.FormatInt(end.Unix(), 10)},
	}
	doc, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	items, err := fetch.List(doc, "$.Data[*]")
	if err != nil {
		return nil, err
	}

	candles := make([]model.Candle, 0, len(items))
	for _, item := range items {
		ts, err := fetch.TimeAt(item, "$.TIMESTAMP")
		if err != nil {
			return nil, err
		}
		if ts.Before(start) || ts.After(end) {
			continue
		}
		closePrice, err := fetch.DecimalAt(item, "$.CLOSE")
		if err != nil {
			return nil, err
		}
		openPrice, _ := fetch.DecimalAt(item, "$.OPEN")
		candles = append(candles, model.Candle{Timestamp: ts, Open: openPrice, Close: closePrice})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })
	return candles, nil
}

// Instrument formats a CoinDesk instrument such as BTC-USD.
func Instrument(symbol, quote string) string {
	return strings.ToUpper(symbol) + "-" + strings.ToUpper(quote)
}

// Limit returns the number of bars covering [start, end], capped at the API maximum.
func Limit(start, end time.Time, step time.Duration) int {
	n := int(end.Sub(start)/step) + 1
	if n < 1 {
		return 1
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
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
	if msg, err := fetch.Path(doc, "$.Err.message"); err == nil {
		return nil, errors.Errorf("%s error: %v", ID, msg)
	}
	return doc, nil
}
