package handlers

import (
	"net/http"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/api/response"
	"github.com/ndewijer/wealth-tracker/internal/service"
	"github.com/ndewijer/wealth-tracker/internal/validation"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new AccountHandler with the provided service dependency.
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// Accounts handles GET /api/account.
func (h *AccountHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.GetAccounts(r.Context())
	if err != nil {
		respondServiceError(w, err, "failed to retrieve accounts")
		return
	}

	response.RespondJSON(w, http.StatusOK, accounts)
}

// GetAccount handles GET /api/account/{accountId}.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "accountId")
	if err != nil {
		respondServiceError(w, err, "invalid account id")
		return
	}

	account, err := h.accountService.GetAccount(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve account")
		return
	}

	response.RespondJSON(w, http.StatusOK, account)
}

// CreateAccount handles POST requests to create a new account.
//
// Endpoint: POST /api/account
// Request Body: CreateAccountRequest (name, type, datasource, externalId, currency)
// Response: 201 Created with Account
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 409 Conflict if the name is taken
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateAccountRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateAccount(req); err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "failed to create account")
		return
	}

	response.RespondJSON(w, http.StatusCreated, account)
}

// UpdateAccount handles PUT /api/account/{accountId}. All fields are optional.
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "accountId")
	if err != nil {
		respondServiceError(w, err, "invalid account id")
		return
	}

	req, err := parseJSON[request.UpdateAccountRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateAccount(req); err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	account, err := h.accountService.UpdateAccount(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, err, "failed to update account")
		return
	}

	response.RespondJSON(w, http.StatusOK, account)
}

// DeleteAccount handles DELETE /api/account/{accountId}. The account's ledger
// entries are removed with it.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "accountId")
	if err != nil {
		respondServiceError(w, err, "invalid account id")
		return
	}

	if err := h.accountService.DeleteAccount(r.Context(), id); err != nil {
		respondServiceError(w, err, "failed to delete account")
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
