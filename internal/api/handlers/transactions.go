package handlers

import (
	"net/http"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/api/response"
	"github.com/ndewijer/wealth-tracker/internal/service"
	"github.com/ndewijer/wealth-tracker/internal/validation"
)

// TransactionHandler handles HTTP requests for transaction endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the transactionService.
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler with the provided service dependency.
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// Transactions handles GET requests to list ledger entries.
//
// Endpoint: GET /api/transaction?asset&account_id&side&from&until
// Response: 200 OK with array of Transaction ordered by timestamp, then id
// Error: 400 Bad Request if a filter is invalid
// Error: 500 Internal Server Error if retrieval fails
func (h *TransactionHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := request.ParseTransactionFilters(q.Get("asset"), q.Get("account_id"), q.Get("side"), q.Get("from"), q.Get("until"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid filter", err.Error())
		return
	}

	transactions, err := h.transactionService.GetTransactions(r.Context(), *filter)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve transactions")
		return
	}

	response.RespondJSON(w, http.StatusOK, transactions)
}

// GetTransaction handles GET requests to retrieve a single transaction by ID.
//
// Endpoint: GET /api/transaction/{transactionId}
// Response: 200 OK with Transaction
// Error: 400 Bad Request if transaction ID is invalid (validated by middleware)
// Error: 404 Not Found if transaction not found
// Error: 500 Internal Server Error if retrieval fails
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "transactionId")
	if err != nil {
		respondServiceError(w, err, "invalid transaction id")
		return
	}

	transaction, err := h.transactionService.GetTransaction(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve transaction")
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// CreateTransaction handles POST requests to record a ledger entry.
//
// Endpoint: POST /api/transaction
// Request Body: CreateTransactionRequest (ts, accountId, assetSymbol, side, qty, ...)
// Response: 201 Created with Transaction
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 404 Not Found if the account does not exist
// Error: 409 Conflict if the (datasource, externalId) pair was already imported
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateTransaction(req); err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	transaction, err := h.transactionService.CreateTransaction(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "failed to create transaction")
		return
	}

	response.RespondJSON(w, http.StatusCreated, transaction)
}

// UpdateTransaction handles PUT requests to update an existing transaction.
// Validates the request body and updates the specified transaction fields.
//
// Endpoint: PUT /api/transaction/{transactionId}
// Request Body: UpdateTransactionRequest (all fields optional, "clear" lists
// nullable fields to reset)
// Response: 200 OK with updated Transaction
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if the transaction or the new account is not found
// Error: 409 Conflict if the new import identity is taken
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "transactionId")
	if err != nil {
		respondServiceError(w, err, "invalid transaction id")
		return
	}

	req, err := parseJSON[request.UpdateTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateTransaction(req); err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, err, "failed to update transaction")
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// DeleteTransaction handles DELETE requests to remove a transaction.
//
// Endpoint: DELETE /api/transaction/{transactionId}
// Response: 204 No Content on successful deletion
// Error: 404 Not Found if transaction not found
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "transactionId")
	if err != nil {
		respondServiceError(w, err, "invalid transaction id")
		return
	}

	if err := h.transactionService.DeleteTransaction(r.Context(), id); err != nil {
		respondServiceError(w, err, "failed to delete transaction")
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
