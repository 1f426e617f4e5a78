// Package jobs holds the scheduled background work: periodically
// refreshing stored price snapshots for every held symbol, so portfolio
// valuations have a recent fallback when the quote source is down.
package jobs

import (
	"context"
	"time"

	"brokerage/types"

	"github.com/rs/zerolog"
)

type symbolLister interface {
	HeldSymbols(ctx context.Context) ([]string, error)
	RecordPrice(ctx context.Context, q *types.Quote, quotedAt time.Time) error
}

type quoteSource interface {
	Lookup(ctx context.Context, symbol string) (*types.Quote, error)
}

type PriceRefresher struct {
	store   symbolLister
	quotes  quoteSource
	timeout time.Duration
	log     zerolog.Logger
}

func NewPriceRefresher(store symbolLister, quotes quoteSource, timeout time.Duration, log zerolog.Logger) *PriceRefresher {
	return &PriceRefresher{store: store, quotes: quotes, timeout: timeout, log: log}
}

// Run refreshes one snapshot per held symbol. A failed symbol is logged
// and skipped so the rest still refresh.
func (r *PriceRefresher) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	symbols, err := r.store.HeldSymbols(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("price refresh: failed to list held symbols")
		return
	}

	var refreshed int
	for _, symbol := range symbols {
		q, err := r.quotes.Lookup(ctx, symbol)
		if err != nil {
			r.log.Warn().Err(err).Str("symbol", symbol).Msg("price refresh: lookup failed")
			continue
		}
		if err := r.store.RecordPrice(ctx, q, time.Now()); err != nil {
			r.log.Warn().Err(err).Str("symbol", symbol).Msg("price refresh: store failed")
			continue
		}
		refreshed++
	}
	r.log.Info().Int("refreshed", refreshed).Int("held", len(symbols)).Msg("price refresh complete")
}
