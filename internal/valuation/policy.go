package valuation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransferPolicy decides how transfer_in and transfer_out entries affect cost basis.
type TransferPolicy int

const (
	// TransferAsAcquisition treats transfer_in as an acquisition and
	// transfer_out as a disposal.
	TransferAsAcquisition TransferPolicy = iota
	// TransferCarryBasis moves lots between accounts keeping their original
	// cost and opened-at timestamp. No gain is realized.
	TransferCarryBasis
)

func (p TransferPolicy) String() string {
	switch p {
	case TransferAsAcquisition:
		return "acquisition"
	case TransferCarryBasis:
		return "carry"
	default:
		return fmt.Sprintf("TransferPolicy(%d)", int(p))
	}
}

// ParseTransferPolicy parses the textual form produced by String.
func ParseTransferPolicy(s string) (TransferPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "acquisition":
		return TransferAsAcquisition, nil
	case "carry":
		return TransferCarryBasis, nil
	default:
		return 0, fmt.Errorf("unknown transfer policy %q", s)
	}
}

// FeeValuer returns the unit price of a fee asset in the quote currency at the
// given instant. It reports false when no price is known.
type FeeValuer func(asset, quote string, at time.Time) (decimal.Decimal, bool)

// Options configures lot matching.
type Options struct {
	Transfers TransferPolicy
	FeeValuer FeeValuer
}
