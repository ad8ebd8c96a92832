package validation

import (
	"strings"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/pricing"
)

// ValidateSyncHistory validates a history sync request.
func ValidateSyncHistory(req request.SyncHistoryRequest) error {
	errors := make(map[string]string)

	if !validSymbol(strings.TrimSpace(req.Asset)) {
		errors["asset"] = "asset is required"
	}
	if req.Quote != "" && !validSymbol(req.Quote) {
		errors["quote"] = "invalid quote currency"
	}

	start, startErr := request.ParseTime(req.Start)
	if startErr != nil {
		errors["start"] = startErr.Error()
	}
	end, endErr := request.ParseTime(req.End)
	if endErr != nil {
		errors["end"] = endErr.Error()
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		errors["end"] = "end must not be before start"
	}

	switch req.Interval {
	case "", pricing.IntervalDay, pricing.IntervalHour:
	default:
		errors["interval"] = "interval must be 1d or 1h"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
