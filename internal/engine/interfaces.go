package engine

import (
	"context"
	"time"

	"brokerage/internal/repository"
	"brokerage/types"
)

type ledgerStore interface {
	BeginTrade(ctx context.Context) (repository.Tx, error)
	PortfolioSnapshot(ctx context.Context, userID int64) (*types.User, []types.Holding, error)
	Transactions(ctx context.Context, userID int64) ([]types.Transaction, error)
	LatestPrice(ctx context.Context, symbol string) (*types.Quote, time.Time, error)
	RecordPrice(ctx context.Context, q *types.Quote, quotedAt time.Time) error
}

type quoteSource interface {
	Lookup(ctx context.Context, symbol string) (*types.Quote, error)
}
