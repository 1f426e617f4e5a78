package repository

import (
	"context"
	"errors"
	"fmt"

	"brokerage/types"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CreateUser inserts a new account with its starting cash balance.
func (db *Database) CreateUser(ctx context.Context, username, passwordHash string, initialCash decimal.Decimal) (*types.User, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, cash)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, password_hash, cash, created_at`,
		username, passwordHash, initialCash)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("username %s: %w", username, ErrUsernameTaken)
		}
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by its unique username.
func (db *Database) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, cash, created_at FROM users WHERE username = $1`,
		username)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("username %s: %w", username, ErrUserNotFound)
		}
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by id.
func (db *Database) GetUserByID(ctx context.Context, id int64) (*types.User, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, cash, created_at FROM users WHERE id = $1`,
		id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Cash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
