package yahoo

import "time"

// Response represents the raw JSON response structure from the Yahoo Finance chart API.
//
// The structure includes:
//   - Chart.Result: Array of result objects (typically contains one element)
//   - Chart.Result[].Meta: Symbol metadata and the regular market price
//   - Chart.Result[].Timestamp: Unix timestamps for each candle
//   - Chart.Result[].Indicators: Price arrays; entries are null for incomplete candles
//   - Chart.Error: Optional error object from Yahoo
type Response struct {
	Chart struct {
		Result []Result `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Result is one symbol's chart.
type Result struct {
	Meta struct {
		Currency           string   `json:"currency"`
		Symbol             string   `json:"symbol"`
		ExchangeName       string   `json:"exchangeName"`
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
		RegularMarketTime  int64    `json:"regularMarketTime"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open  []*float64 `json:"open"`
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// PriceChart is the parsed form of a Result.
type PriceChart struct {
	Symbol     string
	Currency   string
	Indicators []Indicators
}

// Indicators is a single candle. Candles with a missing close are dropped while parsing.
type Indicators struct {
	Date       time.Time
	PriceOpen  float64
	PriceClose float64
}
