package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/repository"
	"github.com/ndewijer/wealth-tracker/internal/validation"
)

// AccountService handles account-related business logic operations.
type AccountService struct {
	accountRepo *repository.AccountRepository
}

// NewAccountService creates a new AccountService with the provided repository.
func NewAccountService(accountRepo *repository.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

// GetAccounts returns all accounts ordered by name.
func (s *AccountService) GetAccounts(ctx context.Context) ([]model.Account, error) {
	return s.accountRepo.ListAccounts(ctx)
}

// GetAccount returns one account or apperrors.ErrAccountNotFound.
func (s *AccountService) GetAccount(ctx context.Context, id int64) (model.Account, error) {
	return s.accountRepo.GetAccount(ctx, id)
}

// CreateAccount stores a new account. The type defaults to exchange.
func (s *AccountService) CreateAccount(ctx context.Context, req request.CreateAccountRequest) (*model.Account, error) {
	account := &model.Account{
		Name:       validation.SanitizeText(req.Name),
		Type:       req.Type,
		Datasource: strings.TrimSpace(req.Datasource),
		ExternalID: strings.TrimSpace(req.ExternalID),
		Currency:   strings.ToUpper(strings.TrimSpace(req.Currency)),
		CreatedAt:  time.Now().UTC(),
	}
	if account.Type == "" {
		account.Type = model.AccountTypeExchange
	}

	if err := s.accountRepo.InsertAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// UpdateAccount applies the provided fields to an existing account.
func (s *AccountService) UpdateAccount(ctx context.Context, id int64, req request.UpdateAccountRequest) (*model.Account, error) {
	account, err := s.accountRepo.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = validation.SanitizeText(*req.Name)
	}
	if req.Type != nil {
		account.Type = *req.Type
	}
	if req.Datasource != nil {
		account.Datasource = strings.TrimSpace(*req.Datasource)
	}
	if req.ExternalID != nil {
		account.ExternalID = strings.TrimSpace(*req.ExternalID)
	}
	if req.Currency != nil {
		account.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
	}

	if err := s.accountRepo.UpdateAccount(ctx, &account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return &account, nil
}

// DeleteAccount removes an account together with its ledger entries.
func (s *AccountService) DeleteAccount(ctx context.Context, id int64) error {
	return s.accountRepo.DeleteAccount(ctx, id)
}
