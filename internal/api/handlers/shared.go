package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/wealth-tracker/internal/api/response"
	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// parseJSON decodes the request body into T. Unknown fields are rejected.
func parseJSON[T any](r *http.Request) (T, error) {
	var req T
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid JSON: %w", err)
	}
	return req, nil
}

// urlID returns the positive integer URL parameter name. Routes validate ids
// with middleware.ValidateIDParam, so an error here means a wiring mistake.
func urlID(r *http.Request, name string) (int64, error) {
	return validation.ValidateID(chi.URLParam(r, name))
}

// inconsistencyDetails is the 409 body of an oversold ledger.
type inconsistencyDetails struct {
	Asset         string `json:"asset"`
	TransactionID int64  `json:"transaction_id"`
	Shortfall     string `json:"shortfall"`
}

// netQuantityDetails is the 409 body of an acquisition eaten by its own fee.
type netQuantityDetails struct {
	Asset         string `json:"asset"`
	TransactionID int64  `json:"transaction_id"`
	Quantity      string `json:"qty"`
	Fee           string `json:"fee"`
}

// respondServiceError maps service errors to HTTP status codes:
// validation 400, not found 404, conflicts 409, exhausted price resolution
// 502 and everything else 500 with message as the error text.
func respondServiceError(w http.ResponseWriter, err error, message string) {
	var vErr *validation.Error
	var ledgerErr *apperrors.LedgerInconsistencyError
	var netErr *apperrors.InvalidNetQuantityError

	switch {
	case errors.As(err, &vErr):
		response.RespondError(w, http.StatusBadRequest, "validation failed", vErr.Fields)
	case errors.Is(err, apperrors.ErrResolutionExhausted):
		response.RespondError(w, http.StatusBadGateway, apperrors.ErrResolutionExhausted.Error(), err.Error())
	case errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrInvalidID),
		errors.Is(err, apperrors.ErrInvalidSide),
		errors.Is(err, apperrors.ErrInvalidQuantity),
		errors.Is(err, apperrors.ErrUnsupportedInterval):
		response.RespondError(w, http.StatusBadRequest, message, err.Error())
	case errors.Is(err, apperrors.ErrAccountNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrAccountNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrTransactionNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrPriceNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrPriceNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrJournalDisabled):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrJournalDisabled.Error(), "")
	case errors.As(err, &ledgerErr):
		response.RespondError(w, http.StatusConflict, apperrors.ErrLedgerInconsistency.Error(), inconsistencyDetails{
			Asset:         ledgerErr.Asset,
			TransactionID: ledgerErr.TransactionID,
			Shortfall:     ledgerErr.Shortfall.String(),
		})
	case errors.As(err, &netErr):
		response.RespondError(w, http.StatusConflict, apperrors.ErrLedgerInconsistency.Error(), netQuantityDetails{
			Asset:         netErr.Asset,
			TransactionID: netErr.TransactionID,
			Quantity:      netErr.Quantity.String(),
			Fee:           netErr.Fee.String(),
		})
	case errors.Is(err, apperrors.ErrDuplicateEntry):
		response.RespondError(w, http.StatusConflict, apperrors.ErrDuplicateEntry.Error(), err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, message, err.Error())
	}
}
