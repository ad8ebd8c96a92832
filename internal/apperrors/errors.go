package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Domain entity errors represent missing entities.
var (
	// ErrAccountNotFound indicates that an account with the given ID does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrPriceNotFound indicates that no cached price exists for an asset and quote currency.
	ErrPriceNotFound = errors.New("price not found")

	// ErrJournalDisabled indicates that the resolution journal is not configured.
	ErrJournalDisabled = errors.New("resolution journal is disabled")
)

// Ledger errors.
var (
	// ErrLedgerInconsistency indicates a disposal exceeds the open quantity of an asset.
	ErrLedgerInconsistency = errors.New("ledger inconsistency")

	// ErrInvalidNetQuantity indicates a fee in the traded asset consumes the whole acquired quantity.
	ErrInvalidNetQuantity = errors.New("fee leaves no net quantity")
)

// Pricing errors.
var (
	// ErrEmptyResult indicates a provider answered without any usable data.
	ErrEmptyResult = errors.New("provider returned no data")

	// ErrUnknownProvider indicates a provider id is not registered.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrDuplicateProvider indicates a provider id was registered twice.
	ErrDuplicateProvider = errors.New("provider already registered")

	// ErrNoProviders indicates the candidate list is empty after ordering.
	ErrNoProviders = errors.New("no price providers configured")

	// ErrResolutionExhausted indicates every candidate provider failed.
	ErrResolutionExhausted = errors.New("price resolution exhausted")

	// ErrUnsupportedInterval indicates a provider cannot serve the requested candle interval.
	ErrUnsupportedInterval = errors.New("unsupported interval")

	// ErrMissingAPIKey indicates a provider requires credentials that are not configured.
	ErrMissingAPIKey = errors.New("missing api key")
)

// Validation errors.
var (
	ErrInvalidID        = errors.New("invalid ID")
	ErrInvalidSide      = errors.New("invalid side")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrDuplicateEntry   = errors.New("duplicate entry")
)

// LedgerInconsistencyError reports an oversell: a disposal that the open lots
// of an asset cannot cover.
type LedgerInconsistencyError struct {
	Asset         string
	TransactionID int64
	Shortfall     decimal.Decimal
}

func (e *LedgerInconsistencyError) Error() string {
	return fmt.Sprintf("ledger inconsistency: transaction %d disposes %s more %s than held",
		e.TransactionID, e.Shortfall.String(), e.Asset)
}

// Is lets errors.Is match ErrLedgerInconsistency.
func (e *LedgerInconsistencyError) Is(target error) bool {
	return target == ErrLedgerInconsistency
}

// InvalidNetQuantityError reports an acquisition whose fee, paid in the
// traded asset, leaves nothing to hold. It is a ledger inconsistency.
type InvalidNetQuantityError struct {
	Asset         string
	TransactionID int64
	Quantity      decimal.Decimal
	Fee           decimal.Decimal
}

func (e *InvalidNetQuantityError) Error() string {
	return fmt.Sprintf("ledger inconsistency: transaction %d pays a fee of %s %s on a quantity of %s",
		e.TransactionID, e.Fee.String(), e.Asset, e.Quantity.String())
}

// Is lets errors.Is match ErrInvalidNetQuantity and ErrLedgerInconsistency.
func (e *InvalidNetQuantityError) Is(target error) bool {
	return target == ErrInvalidNetQuantity || target == ErrLedgerInconsistency
}

// ProviderFailure is one failed attempt of a resolution. It is recovered by
// moving to the next candidate and only surfaces inside ResolutionExhaustedError.
type ProviderFailure struct {
	Provider string
	Asset    string
	Quote    string
	Err      error
}

func (f *ProviderFailure) Error() string {
	return fmt.Sprintf("provider %s failed for %s/%s: %v", f.Provider, f.Asset, f.Quote, f.Err)
}

func (f *ProviderFailure) Unwrap() error {
	return f.Err
}

// ResolutionExhaustedError is returned when no candidate provider produced data.
type ResolutionExhaustedError struct {
	Asset    string
	Quote    string
	Failures []*ProviderFailure
}

func (e *ResolutionExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("price resolution exhausted for %s/%s: %v", e.Asset, e.Quote, ErrNoProviders)
	}
	tried := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		tried = append(tried, f.Provider)
	}
	return fmt.Sprintf("price resolution exhausted for %s/%s after [%s]: %v",
		e.Asset, e.Quote, strings.Join(tried, ","), e.Unwrap())
}

// Unwrap returns the last underlying failure.
func (e *ResolutionExhaustedError) Unwrap() error {
	if len(e.Failures) == 0 {
		return ErrNoProviders
	}
	return e.Failures[len(e.Failures)-1]
}

// Is lets errors.Is match ErrResolutionExhausted.
func (e *ResolutionExhaustedError) Is(target error) bool {
	return target == ErrResolutionExhausted
}

// Causes combines every failure in attempt order.
func (e *ResolutionExhaustedError) Causes() error {
	var err error
	for _, f := range e.Failures {
		err = multierr.Append(err, f)
	}
	return err
}
