package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/model"
)

const transactionColumns = `id, ts, account_id, asset_symbol, side, qty, price_quote, total_quote, quote_ccy,
	fee_qty, fee_asset, note, tx_hash, external_id, datasource, import_batch_id, tags`

// TransactionRepository is the ledger reader and writer over the
// ledger_transaction table.
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a new TransactionRepository scoped to the provided transaction.
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *TransactionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// ListTransactions returns the ledger entries matching filter, ordered by
// timestamp then id. Until is inclusive.
func (r *TransactionRepository) ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, error) {
	var where []string
	var args []any

	if filter.AssetSymbol != "" {
		where = append(where, "asset_symbol = ?")
		args = append(args, strings.ToUpper(filter.AssetSymbol))
	}
	if filter.AccountID != nil {
		where = append(where, "account_id = ?")
		args = append(args, *filter.AccountID)
	}
	if filter.Side != "" {
		where = append(where, "side = ?")
		args = append(args, string(filter.Side))
	}
	if filter.From != nil {
		where = append(where, "ts >= ?")
		args = append(args, FormatTime(*filter.From))
	}
	if filter.Until != nil {
		where = append(where, "ts <= ?")
		args = append(args, FormatTime(*filter.Until))
	}

	query := `SELECT ` + transactionColumns + ` FROM ledger_transaction`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ts ASC, id ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger_transaction table: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger_transaction table: %w", err)
	}

	return txs, nil
}

// GetTransaction retrieves one ledger entry.
// Returns apperrors.ErrTransactionNotFound when it does not exist.
func (r *TransactionRepository) GetTransaction(ctx context.Context, id int64) (model.Transaction, error) {
	row := r.getQuerier().QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM ledger_transaction WHERE id = ?`, id)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	return t, err
}

// InsertTransaction stores t and sets its ID.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	query := `
		INSERT INTO ledger_transaction (ts, account_id, asset_symbol, side, qty, price_quote, total_quote, quote_ccy,
			fee_qty, fee_asset, note, tx_hash, external_id, datasource, import_batch_id, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.getQuerier().ExecContext(ctx, query, transactionArgs(t)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", apperrors.ErrDuplicateEntry, t.Datasource, t.ExternalID)
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read transaction id: %w", err)
	}
	t.ID = id
	return nil
}

// UpdateTransaction overwrites every column of an existing entry.
func (r *TransactionRepository) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	query := `
		UPDATE ledger_transaction
		SET ts = ?, account_id = ?, asset_symbol = ?, side = ?, qty = ?, price_quote = ?, total_quote = ?, quote_ccy = ?,
			fee_qty = ?, fee_asset = ?, note = ?, tx_hash = ?, external_id = ?, datasource = ?, import_batch_id = ?, tags = ?
		WHERE id = ?
	`
	args := append(transactionArgs(t), t.ID)
	res, err := r.getQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", apperrors.ErrDuplicateEntry, t.Datasource, t.ExternalID)
		}
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return expectAffected(res, apperrors.ErrTransactionNotFound)
}

// DeleteTransaction removes one ledger entry.
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.getQuerier().ExecContext(ctx, `DELETE FROM ledger_transaction WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return expectAffected(res, apperrors.ErrTransactionNotFound)
}

// CountTransactions returns the number of ledger entries, only those of
// accountID when it is set.
func (r *TransactionRepository) CountTransactions(ctx context.Context, accountID *int64) (int, error) {
	query, args := scopeToAccount(`SELECT COUNT(*) FROM ledger_transaction`, "account_id", accountID)
	var n int
	if err := r.getQuerier().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// CountAssets returns the number of distinct asset symbols in the ledger,
// only those of accountID when it is set.
func (r *TransactionRepository) CountAssets(ctx context.Context, accountID *int64) (int, error) {
	query, args := scopeToAccount(`SELECT COUNT(DISTINCT asset_symbol) FROM ledger_transaction`, "account_id", accountID)
	var n int
	if err := r.getQuerier().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}
	return n, nil
}

// scopeToAccount appends "WHERE column = ?" to query when accountID is set.
func scopeToAccount(query, column string, accountID *int64) (string, []any) {
	if accountID == nil {
		return query, nil
	}
	return query + ` WHERE ` + column + ` = ?`, []any{*accountID}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (model.Transaction, error) {
	var t model.Transaction
	var ts, side string
	var feeAsset, note, txHash, externalID, datasource, batchID, tags sql.NullString

	err := s.Scan(
		&t.ID,
		&ts,
		&t.AccountID,
		&t.AssetSymbol,
		&side,
		&t.Quantity,
		&t.PriceQuote,
		&t.TotalQuote,
		&t.QuoteCcy,
		&t.FeeQuantity,
		&feeAsset,
		&note,
		&txHash,
		&externalID,
		&datasource,
		&batchID,
		&tags,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("failed to scan ledger_transaction results: %w", err)
	}

	t.Timestamp, err = ParseTime(ts)
	if err != nil {
		return t, err
	}
	t.Side = model.Side(side)
	t.FeeAsset = feeAsset.String
	t.Note = note.String
	t.TxHash = txHash.String
	t.ExternalID = externalID.String
	t.Datasource = datasource.String
	t.ImportBatchID = batchID.String
	t.Tags = tags.String
	return t, nil
}

func transactionArgs(t *model.Transaction) []any {
	return []any{
		FormatTime(t.Timestamp),
		t.AccountID,
		strings.ToUpper(t.AssetSymbol),
		string(t.Side),
		t.Quantity,
		t.PriceQuote,
		t.TotalQuote,
		strings.ToUpper(t.QuoteCcy),
		t.FeeQuantity,
		nullString(strings.ToUpper(t.FeeAsset)),
		nullString(t.Note),
		nullString(t.TxHash),
		nullString(t.ExternalID),
		nullString(t.Datasource),
		nullString(t.ImportBatchID),
		nullString(t.Tags),
	}
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
