package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brokerage/types"

	"github.com/jackc/pgx/v5"
)

// RecordPrice appends a quote snapshot for later stale-price fallback.
func (db *Database) RecordPrice(ctx context.Context, q *types.Quote, quotedAt time.Time) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO stock_prices (symbol, name, price, quoted_at) VALUES ($1, $2, $3, $4)`,
		q.Symbol, q.Name, q.Price, quotedAt)
	return err
}

// LatestPrice returns the newest stored snapshot for a symbol.
func (db *Database) LatestPrice(ctx context.Context, symbol string) (*types.Quote, time.Time, error) {
	q := &types.Quote{Symbol: symbol}
	var quotedAt time.Time
	err := db.pool.QueryRow(ctx,
		`SELECT name, price, quoted_at FROM stock_prices WHERE symbol = $1 ORDER BY quoted_at DESC LIMIT 1`,
		symbol).Scan(&q.Name, &q.Price, &quotedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, time.Time{}, fmt.Errorf("symbol %s: %w", symbol, ErrNoPrice)
		}
		return nil, time.Time{}, err
	}
	return q, quotedAt, nil
}

// HeldSymbols lists every symbol with at least one open position, for
// the background price refresh.
func (db *Database) HeldSymbols(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT symbol FROM holdings WHERE shares > 0 ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}
