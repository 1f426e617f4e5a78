package repository

import (
	"context"
	"errors"
	"fmt"

	"brokerage/types"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Tx is the atomic unit for a single trade. The cash read takes a row
// lock on the user, so concurrent trades for the same user serialize on
// BeginTrade order and always observe committed balances.
type Tx interface {
	// UserCashForUpdate reads the user's cash under a row lock held
	// until commit or rollback.
	UserCashForUpdate(ctx context.Context, userID int64) (decimal.Decimal, error)
	// HoldingForUpdate reads the current share count for (user, symbol),
	// locking the row when it exists. A missing row reports zero shares.
	HoldingForUpdate(ctx context.Context, userID int64, symbol string) (shares int64, exists bool, err error)
	InsertHolding(ctx context.Context, userID int64, symbol string) error
	UpdateHoldingShares(ctx context.Context, userID int64, symbol string, shares int64) error
	AdjustCash(ctx context.Context, userID int64, delta decimal.Decimal) error
	AppendTransaction(ctx context.Context, txn *types.Transaction) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// BeginTrade opens the store transaction that backs one buy or sell.
func (db *Database) BeginTrade(ctx context.Context) (Tx, error) {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin trade: %w", err)
	}
	return &ledgerTx{tx: tx}, nil
}

type ledgerTx struct {
	tx pgx.Tx
}

func (t *ledgerTx) UserCashForUpdate(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var cash decimal.Decimal
	err := t.tx.QueryRow(ctx,
		`SELECT cash FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&cash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
		}
		return decimal.Zero, err
	}
	return cash, nil
}

func (t *ledgerTx) HoldingForUpdate(ctx context.Context, userID int64, symbol string) (int64, bool, error) {
	var shares int64
	err := t.tx.QueryRow(ctx,
		`SELECT shares FROM holdings WHERE user_id = $1 AND symbol = $2 FOR UPDATE`,
		userID, symbol).Scan(&shares)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return shares, true, nil
}

func (t *ledgerTx) InsertHolding(ctx context.Context, userID int64, symbol string) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO holdings (user_id, symbol, shares) VALUES ($1, $2, 0)`,
		userID, symbol)
	return err
}

func (t *ledgerTx) UpdateHoldingShares(ctx context.Context, userID int64, symbol string, shares int64) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE holdings SET shares = $3, updated_at = now() WHERE user_id = $1 AND symbol = $2`,
		userID, symbol, shares)
	return err
}

func (t *ledgerTx) AdjustCash(ctx context.Context, userID int64, delta decimal.Decimal) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE users SET cash = cash + $2 WHERE id = $1`, userID, delta)
	return err
}

func (t *ledgerTx) AppendTransaction(ctx context.Context, txn *types.Transaction) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO transactions (user_id, symbol, display_name, shares, price, kind)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		txn.UserID, txn.Symbol, txn.DisplayName, txn.Shares, txn.Price, string(txn.Kind))
	return err
}

func (t *ledgerTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *ledgerTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// querier is satisfied by both the pool and an open pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Holdings returns a user's open positions in acquisition order. Rows
// that sold down to zero shares are filtered out.
func (db *Database) Holdings(ctx context.Context, userID int64) ([]types.Holding, error) {
	return queryHoldings(ctx, db.pool, userID)
}

func queryHoldings(ctx context.Context, q querier, userID int64) ([]types.Holding, error) {
	rows, err := q.Query(ctx,
		`SELECT user_id, symbol, shares, created_at, updated_at
		 FROM holdings
		 WHERE user_id = $1 AND shares > 0
		 ORDER BY created_at, symbol`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []types.Holding
	for rows.Next() {
		var h types.Holding
		if err := rows.Scan(&h.UserID, &h.Symbol, &h.Shares, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// PortfolioSnapshot reads a user's cash and open positions inside one
// repeatable-read transaction, so a trade committing between the two
// reads cannot surface pre-trade cash next to post-trade holdings.
func (db *Database) PortfolioSnapshot(ctx context.Context, userID int64) (*types.User, []types.Holding, error) {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	user, err := scanUser(tx.QueryRow(ctx,
		`SELECT id, username, password_hash, cash, created_at FROM users WHERE id = $1`,
		userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
		}
		return nil, nil, err
	}

	holdings, err := queryHoldings(ctx, tx, userID)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return user, holdings, nil
}

// Transactions returns a user's trade log, newest first.
func (db *Database) Transactions(ctx context.Context, userID int64) ([]types.Transaction, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, symbol, display_name, shares, price, kind, created_at
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []types.Transaction
	for rows.Next() {
		var txn types.Transaction
		var kind string
		if err := rows.Scan(&txn.ID, &txn.UserID, &txn.Symbol, &txn.DisplayName, &txn.Shares, &txn.Price, &kind, &txn.CreatedAt); err != nil {
			return nil, err
		}
		txn.Kind = types.TransactionKind(kind)
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
