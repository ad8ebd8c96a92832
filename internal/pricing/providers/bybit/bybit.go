// Package bybit implements a price provider on top of the Bybit v5 spot market API.
package bybit

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/pricing"
)

// ID is the registry id of this provider.
const ID = "bybit"

const spot = "spot"

// Config configures the provider.
type Config struct {
	BaseURL string
}

// Client wraps a Bybit client.
type Client struct {
	client *bybit.Client
}

// New creates a client.
func New(cfg Config) *Client {
	c := bybit.NewClient()
	if cfg.BaseURL != "" {
		c = c.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	}
	return &Client{client: c}
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

// GetQuote returns the last traded spot price. The SDK client is not
// context aware, so cancellation is only checked before the call.
func (c *Client) GetQuote(ctx context.Context, symbol, quote string) (model.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return model.PricePoint{}, err
	}
	sym := bybit.SymbolV5(Symbol(symbol, quote))
	res, err := c.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: spot,
		Symbol:   &sym,
	})
	if err != nil {
		return model.PricePoint{}, errors.Wrap(err, ID)
	}
	if res.Result.Spot == nil || len(res.Result.Spot.List) == 0 {
		return model.PricePoint{}, apperrors.ErrEmptyResult
	}

	last := res.Result.Spot.List[0].LastPrice
	price, err := decimal.NewFromString(last)
	if err != nil {
		return model.PricePoint{}, errors.Wrapf(err, "parse bybit price %q", last)
	}
	return model.PricePoint{
		AssetSymbol: strings.ToUpper(symbol),
		QuoteCcy:    strings.ToUpper(quote),
		Price:       price,
		Source:      ID,
	}, nil
}

// GetOHLCV returns the most recent page of klines filtered to [start, end].
func (c *Client) GetOHLCV(ctx context.Context, symbol string, start, end time.Time, interval, quote string) ([]model.Candle, error) {
	iv, ok := map[string]bybit.Interval{pricing.IntervalDay: bybit.Interval("D"), pricing.IntervalHour: bybit.Interval("60")}[interval]
	if !ok {
		return nil, errors.Wrap(apperrors.ErrUnsupportedInterval, interval)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := 1000
	res, err := c.client.V5().Market().GetKline(bybit.V5GetKlineParam{
		Category: spot,
		Symbol:   bybit.SymbolV5(Symbol(symbol, quote)),
		Interval: iv,
		Limit:    &limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, ID)
	}

	var candles []model.Candle
	for i, k := range res.Result.List {
		candle, err := toCandle(k.StartTime, k.Open, k.Close)
		if err != nil {
			return nil, errors.Wrapf(err, "kline %d", i)
		}
		if candle.Timestamp.Before(start) || candle.Timestamp.After(end) {
			continue
		}
		candles = append(candles, candle)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })
	return candles, nil
}

// Symbol maps an asset and quote to a Bybit spot pair. USD is quoted in USDT.
func Symbol(symbol, quote string) string {
	quote = strings.ToUpper(quote)
	if quote == "USD" {
		quote = "USDT"
	}
	return strings.ToUpper(symbol) + quote
}

func toCandle(startMs, open, closePrice string) (model.Candle, error) {
	ms, err := strconv.ParseInt(startMs, 10, 64)
	if err != nil {
		return model.Candle{}, errors.Wrapf(err, "parse start time %q", startMs)
	}
	o, err := decimal.NewFromString(open)
	if err != nil {
		return model.Candle{}, errors.Wrapf(err, "parse open price %q", open)
	}
	c, err := decimal.NewFromString(closePrice)
	if err != nil {
		return model.Candle{}, errors.Wrapf(err, "parse close price %q", closePrice)
	}
	return model.Candle{Timestamp: time.UnixMilli(ms).UTC(), Open: o, Close: c}, nil
}
