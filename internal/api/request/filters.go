package request

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ndewijer/wealth-tracker/internal/model"
)

// PortfolioQuery is the parsed query of the portfolio endpoints.
type PortfolioQuery struct {
	QuoteCcy  string
	AccountID *int64
	AsOf      time.Time
	Refresh   bool
}

// ParseTransactionFilters extracts and validates ledger filters from query parameters.
// All parameters are optional.
//
// Validation rules:
//   - account_id: Must be a positive integer
//   - side: Must be buy, sell, transfer_in or transfer_out
//   - from/until: Must be valid date/datetime strings (YYYY-MM-DD or RFC3339), from <= until
func ParseTransactionFilters(assetParam, accountParam, sideParam, fromParam, untilParam string) (*model.TransactionFilter, error) {
	filter := &model.TransactionFilter{
		AssetSymbol: strings.ToUpper(strings.TrimSpace(assetParam)),
	}

	accountID, err := ParseOptionalID(accountParam)
	if err != nil {
		return nil, fmt.Errorf("invalid account_id: %w", err)
	}
	filter.AccountID = accountID

	if sideParam != "" {
		side := model.Side(strings.ToLower(strings.TrimSpace(sideParam)))
		if !model.ValidSides[side] {
			return nil, fmt.Errorf("invalid side: %s", sideParam)
		}
		filter.Side = side
	}

	if fromParam != "" {
		from, err := ParseTime(fromParam)
		if err != nil {
			return nil, fmt.Errorf("invalid from format: %w", err)
		}
		filter.From = &from
	}

	if untilParam != "" {
		until, err := ParseTime(untilParam)
		if err != nil {
			return nil, fmt.Errorf("invalid until format: %w", err)
		}
		filter.Until = &until
	}

	if filter.From != nil && filter.Until != nil && filter.Until.Before(*filter.From) {
		return nil, fmt.Errorf("invalid date range: until is before from")
	}

	return filter, nil
}

// ParsePortfolioQuery parses the summary and holdings parameters.
// quote defaults to defaultQuote, as_of to now and refresh to true.
func ParsePortfolioQuery(quoteParam, accountParam, asOfParam, refreshParam, defaultQuote string, now time.Time) (*PortfolioQuery, error) {
	q := &PortfolioQuery{
		QuoteCcy: strings.ToUpper(strings.TrimSpace(quoteParam)),
		AsOf:     now.UTC(),
		Refresh:  true,
	}
	if q.QuoteCcy == "" {
		q.QuoteCcy = strings.ToUpper(defaultQuote)
	}

	accountID, err := ParseOptionalID(accountParam)
	if err != nil {
		return nil, fmt.Errorf("invalid account_id: %w", err)
	}
	q.AccountID = accountID

	if asOfParam != "" {
		asOf, err := ParseTime(asOfParam)
		if err != nil {
			return nil, fmt.Errorf("invalid as_of format: %w", err)
		}
		q.AsOf = asOf
	}

	if refreshParam != "" {
		refresh, err := strconv.ParseBool(refreshParam)
		if err != nil {
			return nil, fmt.Errorf("invalid refresh: must be true or false")
		}
		q.Refresh = refresh
	}

	return q, nil
}

// ParseOptionalID parses a positive integer id. An empty string yields nil.
func ParseOptionalID(s string) (*int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%q is not a positive integer", s)
	}
	return &id, nil
}

// ParseLimit parses a page size between 1 and maxLimit.
func ParseLimit(s string, defaultLimit, maxLimit int) (int, error) {
	if s == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid limit: must be a number")
	}
	if limit < 1 || limit > maxLimit {
		return 0, fmt.Errorf("invalid limit: must be between 1 and %d", maxLimit)
	}
	return limit, nil
}

// ParseProviders splits a comma separated provider list. Blank entries are dropped.
func ParseProviders(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseTime parses date strings for filter parameters and request bodies.
// Accepts YYYY-MM-DD, RFC3339, and RFC3339 with fractional seconds. Results are UTC.
func ParseTime(str string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, strings.TrimSpace(str)); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date or datetime", str)
}
