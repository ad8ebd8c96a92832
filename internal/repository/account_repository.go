package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/model"
)

// AccountRepository provides data access methods for the account table.
type AccountRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewAccountRepository creates a new AccountRepository with the provided database connection.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// WithTx returns a new AccountRepository scoped to the provided transaction.
func (r *AccountRepository) WithTx(tx *sql.Tx) *AccountRepository {
	return &AccountRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *AccountRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// ListAccounts returns all accounts ordered by name.
func (r *AccountRepository) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT id, name, type, datasource, external_id, currency, created_at
		FROM account
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query account table: %w", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account table: %w", err)
	}
	return accounts, nil
}

// GetAccount retrieves an account by id.
// Returns apperrors.ErrAccountNotFound when it does not exist.
func (r *AccountRepository) GetAccount(ctx context.Context, id int64) (model.Account, error) {
	row := r.getQuerier().QueryRowContext(ctx, `
		SELECT id, name, type, datasource, external_id, currency, created_at
		FROM account
		WHERE id = ?
	`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, apperrors.ErrAccountNotFound
	}
	return a, err
}

// InsertAccount stores a and sets its ID.
func (r *AccountRepository) InsertAccount(ctx context.Context, a *model.Account) error {
	res, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO account (name, type, datasource, external_id, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.Name, a.Type, nullString(a.Datasource), nullString(a.ExternalID), nullString(a.Currency), FormatTime(a.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account %q", apperrors.ErrDuplicateEntry, a.Name)
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read account id: %w", err)
	}
	a.ID = id
	return nil
}

// UpdateAccount overwrites the mutable fields of an account.
func (r *AccountRepository) UpdateAccount(ctx context.Context, a *model.Account) error {
	res, err := r.getQuerier().ExecContext(ctx, `
		UPDATE account
		SET name = ?, type = ?, datasource = ?, external_id = ?, currency = ?
		WHERE id = ?
	`, a.Name, a.Type, nullString(a.Datasource), nullString(a.ExternalID), nullString(a.Currency), a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account %q", apperrors.ErrDuplicateEntry, a.Name)
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	return expectAffected(res, apperrors.ErrAccountNotFound)
}

// DeleteAccount removes an account and, through the foreign key, its ledger entries.
func (r *AccountRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.getQuerier().ExecContext(ctx, `DELETE FROM account WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return expectAffected(res, apperrors.ErrAccountNotFound)
}

// CountAccounts returns the number of accounts. With accountID set the
// result is 1 when that account exists, else 0.
func (r *AccountRepository) CountAccounts(ctx context.Context, accountID *int64) (int, error) {
	query, args := scopeToAccount(`SELECT COUNT(*) FROM account`, "id", accountID)
	var n int
	if err := r.getQuerier().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}

func scanAccount(s rowScanner) (model.Account, error) {
	var a model.Account
	var datasource, externalID, currency sql.NullString
	var createdAt string

	if err := s.Scan(&a.ID, &a.Name, &a.Type, &datasource, &externalID, &currency, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, err
		}
		return a, fmt.Errorf("failed to scan account results: %w", err)
	}

	var err error
	a.CreatedAt, err = ParseTime(createdAt)
	if err != nil {
		return a, err
	}
	a.Datasource = datasource.String
	a.ExternalID = externalID.String
	a.Currency = currency.String
	return a, nil
}
