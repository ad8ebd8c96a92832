package fetch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
)

// Path evaluates a JSONPath expression against a generic document. A result
// that is a single element list is unwrapped. Missing paths report
// apperrors.ErrEmptyResult.
func Path(doc any, path string) (any, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, errors.Wrapf(apperrors.ErrEmptyResult, "%s: %v", path, err)
	}
	if list, ok := v.([]any); ok && len(list) == 1 {
		v = list[0]
	}
	if v == nil {
		return nil, errors.Wrapf(apperrors.ErrEmptyResult, "%s is null", path)
	}
	return v, nil
}

// List evaluates path and requires a list result.
func List(doc any, path string) ([]any, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, errors.Wrapf(apperrors.ErrEmptyResult, "%s: %v", path, err)
	}
	list, ok := v.([]any)
	if !ok {
		return nil, errors.Errorf("%s is %T, not a list", path, v)
	}
	return list, nil
}

// DecimalAt reads a number at path.
func DecimalAt(doc any, path string) (decimal.Decimal, error) {
	v, err := Path(doc, path)
	if err != nil {
		return decimal.Zero, err
	}
	return ToDecimal(v)
}

// ToDecimal converts a decoded JSON value into a decimal.
func ToDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(n)
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	default:
		return decimal.Zero, fmt.Errorf("value %v (%T) is not a number", v, v)
	}
}

// TimeAt reads a timestamp at path. RFC3339 strings and unix seconds are accepted.
func TimeAt(doc any, path string) (time.Time, error) {
	v, err := Path(doc, path)
	if err != nil {
		return time.Time{}, err
	}
	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "parse %s", path)
		}
		return parsed.UTC(), nil
	default:
		secs, err := ToDecimal(v)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(secs.IntPart(), 0).UTC(), nil
	}
}
