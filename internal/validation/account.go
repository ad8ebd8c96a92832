package validation

import (
	"fmt"
	"strings"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/model"
)

// ValidateCreateAccount validates an account creation request.
func ValidateCreateAccount(req request.CreateAccountRequest) error {
	errors := make(map[string]string)

	validateName(errors, req.Name)
	if req.Type != "" && !model.ValidAccountTypes[req.Type] {
		errors["type"] = fmt.Sprintf("invalid type: %s", req.Type)
	}
	if req.Currency != "" && !validSymbol(req.Currency) {
		errors["currency"] = "invalid currency"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateUpdateAccount validates an account update request.
func ValidateUpdateAccount(req request.UpdateAccountRequest) error {
	errors := make(map[string]string)

	if req.Name != nil {
		validateName(errors, *req.Name)
	}
	if req.Type != nil && !model.ValidAccountTypes[*req.Type] {
		errors["type"] = fmt.Sprintf("invalid type: %s", *req.Type)
	}
	if req.Currency != nil && *req.Currency != "" && !validSymbol(*req.Currency) {
		errors["currency"] = "invalid currency"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

func validateName(errors map[string]string, name string) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		errors["name"] = "name is required"
	case len(name) > 100:
		errors["name"] = "name must be 100 characters or less"
	}
}
