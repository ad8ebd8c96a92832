// Package binance implements a price provider on top of the Binance spot API.
package binance

import (
	"context"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/pricing"
)

// ID is the registry id of this provider.
const ID = "binance"

const maxKlines = 1000

// Config configures the provider. Public market data needs no credentials.
type Config struct {
	BaseURL string
}

// Client wraps a go-binance client.
type Client struct {
	client *binance.Client
}

// New creates a client.
func New(cfg Config) *Client {
	c := binance.NewClient("", "")
	if cfg.BaseURL != "" {
		c.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
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

func (c *Client) GetQuote(ctx context.Context, symbol, quote string) (model.PricePoint, error) {
	prices, err := c.client.NewListPricesService().Symbol(Symbol(symbol, quote)).Do(ctx)
	if err != nil {
		return model.PricePoint{}, errors.Wrap(err, ID)
	}
	if len(prices) == 0 {
		return model.PricePoint{}, apperrors.ErrEmptyResult
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return model.PricePoint{}, errors.Wrapf(err, "parse binance price %q", prices[0].Price)
	}
	return model.PricePoint{
		AssetSymbol: strings.ToUpper(symbol),
		QuoteCcy:    strings.ToUpper(quote),
		Price:       price,
		Source:      ID,
	}, nil
}

func (c *Client) GetOHLCV(ctx context.Context, symbol string, start, end time.Time, interval, quote string) ([]model.Candle, error) {
	if interval != pricing.IntervalDay && interval != pricing.IntervalHour {
		return nil, errors.Wrap(apperrors.ErrUnsupportedInterval, interval)
	}

	klines, err := c.client.NewKlinesService().
		Symbol(Symbol(symbol, quote)).
		Interval(interval).
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli()).
		Limit(maxKlines).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, ID)
	}

	candles := make([]model.Candle, 0, len(klines))
	for i, k := range klines {
		candle, err := toCandle(k.OpenTime, k.Open, k.Close)
		if err != nil {
			return nil, errors.Wrapf(err, "kline %d", i)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// Symbol maps an asset and quote to a Binance pair. USD is quoted in USDT.
func Symbol(symbol, quote string) string {
	quote = strings.ToUpper(quote)
	if quote == "USD" {
		quote = "USDT"
	}
	return strings.ToUpper(symbol) + quote
}

func toCandle(openTimeMs int64, open, closePrice string) (model.Candle, error) {
	o, err := decimal.NewFromString(open)
	if err != nil {
		return model.Candle{}, errors.Wrapf(err, "parse open price %q", open)
	}
	c, err := decimal.NewFromString(closePrice)
	if err != nil {
		return model.Candle{}, errors.Wrapf(err, "parse close price %q", closePrice)
	}
	return model.Candle{Timestamp: time.UnixMilli(openTimeMs).UTC(), Open: o, Close: c}, nil
}
