package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ndewijer/wealth-tracker/internal/model"
)

// PriceRepository stores the latest price per (asset, quote) and the candle
// history fetched from providers.
type PriceRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// WithTx returns a new PriceRepository scoped to the provided transaction.
func (r *PriceRepository) WithTx(tx *sql.Tx) *PriceRepository {
	return &PriceRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *PriceRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// Get returns the latest cached point for asset and quote, or nil when none exists.
func (r *PriceRepository) Get(ctx context.Context, asset, quote string) (*model.PricePoint, error) {
	row := r.getQuerier().QueryRowContext(ctx, `
		SELECT asset_symbol, quote_ccy, price, ts, source
		FROM price_point
		WHERE asset_symbol = ? AND quote_ccy = ?
	`, strings.ToUpper(asset), strings.ToUpper(quote))

	p, err := scanPricePoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Put stores p unless the cached point for the same key is at least as new.
// The comparison happens inside a single statement, so concurrent writers
// cannot replace a newer point with an older one. Reports whether p was written.
func (r *PriceRepository) Put(ctx context.Context, p model.PricePoint) (bool, error) {
	res, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO price_point (asset_symbol, quote_ccy, price, ts, source)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (asset_symbol, quote_ccy) DO UPDATE
		SET price = excluded.price, ts = excluded.ts, source = excluded.source
		WHERE excluded.ts > price_point.ts
	`, strings.ToUpper(p.AssetSymbol), strings.ToUpper(p.QuoteCcy), p.Price, FormatTime(p.Timestamp), p.Source)
	if err != nil {
		return false, fmt.Errorf("failed to upsert price_point: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// ListLatest returns every cached point for quote, ordered by asset.
func (r *PriceRepository) ListLatest(ctx context.Context, quote string) ([]model.PricePoint, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT asset_symbol, quote_ccy, price, ts, source
		FROM price_point
		WHERE quote_ccy = ?
		ORDER BY asset_symbol ASC
	`, strings.ToUpper(quote))
	if err != nil {
		return nil, fmt.Errorf("failed to query price_point table: %w", err)
	}
	defer rows.Close()

	points := []model.PricePoint{}
	for rows.Next() {
		p, err := scanPricePoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price_point table: %w", err)
	}
	return points, nil
}

// PutHistory stores candle closes, replacing existing rows at the same timestamp.
func (r *PriceRepository) PutHistory(ctx context.Context, asset, quote, source string, candles []model.Candle) (int, error) {
	stored := 0
	for _, c := range candles {
		_, err := r.getQuerier().ExecContext(ctx, `
			INSERT INTO price_history (asset_symbol, quote_ccy, ts, close, source)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (asset_symbol, quote_ccy, ts) DO UPDATE
			SET close = excluded.close, source = excluded.source
		`, strings.ToUpper(asset), strings.ToUpper(quote), FormatTime(c.Timestamp), c.Close, source)
		if err != nil {
			return stored, fmt.Errorf("failed to upsert price_history: %w", err)
		}
		stored++
	}
	return stored, nil
}

// HistoryAsOf returns the newest history point at or before at, or nil.
func (r *PriceRepository) HistoryAsOf(ctx context.Context, asset, quote string, at time.Time) (*model.PricePoint, error) {
	row := r.getQuerier().QueryRowContext(ctx, `
		SELECT asset_symbol, quote_ccy, close, ts, source
		FROM price_history
		WHERE asset_symbol = ? AND quote_ccy = ? AND ts <= ?
		ORDER BY ts DESC
		LIMIT 1
	`, strings.ToUpper(asset), strings.ToUpper(quote), FormatTime(at))

	p, err := scanPricePoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListHistory returns history points within [start, end] in ascending order.
func (r *PriceRepository) ListHistory(ctx context.Context, asset, quote string, start, end time.Time) ([]model.PricePoint, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT asset_symbol, quote_ccy, close, ts, source
		FROM price_history
		WHERE asset_symbol = ? AND quote_ccy = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`, strings.ToUpper(asset), strings.ToUpper(quote), FormatTime(start), FormatTime(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query price_history table: %w", err)
	}
	defer rows.Close()

	points := []model.PricePoint{}
	for rows.Next() {
		p, err := scanPricePoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price_history table: %w", err)
	}
	return points, nil
}

// CountPricePoints returns the number of cached latest prices.
func (r *PriceRepository) CountPricePoints(ctx context.Context) (int, error) {
	var n int
	if err := r.getQuerier().QueryRowContext(ctx, `SELECT COUNT(*) FROM price_point`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count price points: %w", err)
	}
	return n, nil
}

func scanPricePoint(s rowScanner) (model.PricePoint, error) {
	var p model.PricePoint
	var ts string
	if err := s.Scan(&p.AssetSymbol, &p.QuoteCcy, &p.Price, &ts, &p.Source); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan price results: %w", err)
	}
	var err error
	p.Timestamp, err = ParseTime(ts)
	return p, err
}
