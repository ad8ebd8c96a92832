package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PreferenceRepository persists the provider that last succeeded per asset.
type PreferenceRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPreferenceRepository creates a new PreferenceRepository with the provided database connection.
func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// WithTx returns a new PreferenceRepository scoped to the provided transaction.
func (r *PreferenceRepository) WithTx(tx *sql.Tx) *PreferenceRepository {
	return &PreferenceRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *PreferenceRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetPreference returns the preferred provider id for asset, or "" when none is set.
func (r *PreferenceRepository) GetPreference(ctx context.Context, asset string) (string, error) {
	var provider string
	err := r.getQuerier().QueryRowContext(ctx,
		`SELECT provider_id FROM provider_preference WHERE asset_symbol = ?`,
		strings.ToUpper(asset),
	).Scan(&provider)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query provider_preference table: %w", err)
	}
	return provider, nil
}

// SetPreference records provider as the preferred one for asset.
func (r *PreferenceRepository) SetPreference(ctx context.Context, asset, provider string) error {
	_, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO provider_preference (asset_symbol, provider_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (asset_symbol) DO UPDATE
		SET provider_id = excluded.provider_id, updated_at = excluded.updated_at
	`, strings.ToUpper(asset), provider, FormatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to upsert provider_preference: %w", err)
	}
	return nil
}
