// Package engine executes buy and sell orders against the ledger store
// while keeping cash, holdings and the trade log consistent: a trade
// either commits all three writes or none of them, cash and share
// counts never go negative, and concurrent trades for one user are
// serialized by the store's row locks.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"brokerage/internal/quote"
	"brokerage/internal/repository"
	"brokerage/types"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	InvalidInputErr      = errors.New("invalid trade input")
	UnknownSymbolErr     = errors.New("unknown symbol")
	InsufficientFundsErr = errors.New("insufficient funds for buy")
	StoreUnavailableErr  = errors.New("ledger store unavailable")
)

// InsufficientSharesErr reports a sell that exceeds the held position,
// carrying the share count actually available.
type InsufficientSharesErr struct {
	Symbol    string
	Available int64
}

func (e *InsufficientSharesErr) Error() string {
	return fmt.Sprintf("insufficient shares of %s: %d available", e.Symbol, e.Available)
}

// Engine holds no per-request state; all state lives in the store.
type Engine struct {
	store  ledgerStore
	quotes quoteSource
	log    zerolog.Logger
}

func New(store ledgerStore, quotes quoteSource, log zerolog.Logger) *Engine {
	return &Engine{store: store, quotes: quotes, log: log}
}

// Buy purchases shares of symbol at the current quoted price. It fails
// with InsufficientFundsErr when cost exceeds the user's cash, leaving
// the store untouched.
func (e *Engine) Buy(ctx context.Context, userID int64, symbol string, shares int64) error {
	symbol, err := validateOrder(userID, symbol, shares)
	if err != nil {
		return err
	}

	q, err := e.lookup(ctx, symbol)
	if err != nil {
		return err
	}
	cost := q.Price.Mul(decimal.NewFromInt(shares))

	tx, err := e.store.BeginTrade(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", StoreUnavailableErr, err)
	}
	defer tx.Rollback(ctx)

	cash, err := tx.UserCashForUpdate(ctx, userID)
	if err != nil {
		return storeErr(err)
	}
	if cash.LessThan(cost) {
		return fmt.Errorf("cost %s exceeds cash %s: %w", cost, cash, InsufficientFundsErr)
	}

	txn := &types.Transaction{
		UserID:      userID,
		Symbol:      q.Symbol,
		DisplayName: q.Name,
		Shares:      shares,
		Price:       q.Price,
		Kind:        types.KindBuy,
	}
	if err := tx.AppendTransaction(ctx, txn); err != nil {
		return fmt.Errorf("%w: %v", StoreUnavailableErr, err)
	}
	if err := tx.AdjustCash(ctx, userID, cost.Neg()); err != nil {
		return fmt.Errorf("%w: %v", StoreUnavailableErr, err)
	}

	held, exists, err := tx.HoldingForUpdate(ctx, userID, q.Symbol)
	if err != nil {
		return fmt.Errorf("%w: %v", StoreUnavailableErr, err)
	}
	if !exists {
		if err := tx.InsertHolding(ctx, userID, q.Symbol); err != nil {
			return fmt.Errorf("%w: %v", StoreUnavailableErr, err)
		}
	}
	if err := tx.UpdateHoldingShares(ctx, userID, q.Symbol, held+shares); err != nil {
		return fmt.Errorf("%w: %v", StoreUnavailableErr, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", StoreUnavailableErr, err)
	}

	e.log.Info().
		Int64("user_id", userID).
		Str("symbol", q.Symbol).
		Int64("shares", shares).
		Str("price", q.Price.String()).
		Msg("buy executed")
	return nil
}

// Sell disposes shares of symbol at the current quoted price. It fails
// with InsufficientSharesErr when the user holds fewer shares than
// requested, leaving the store untouched.
func (e *Engine) Sell(ctx context.Context, userID int64, symbol string, shares int64) error {
	symbol, err := validateOrder(userID, symbol, shares)
	if err != nil {
		return err
	}

	q, err := e.lookup(ctx, symbol)
	if err != nil {
		return err
	}
	proceeds := q.Price.Mul(decimal.NewFromInt(shares))

	tx, err := e.store.BeginTrade(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", StoreUnavailableErr, err)
	}
	defer tx.Rollback(ctx)

	// Lock the user row first so buys and sells for one user always
	// serialize on the same lock.
	if _, err := tx.UserCashForUpdate(ctx, userID); err != nil {
		return storeErr(err)
	}

	held, _, err := tx.HoldingForUpdate(ctx, userID, q.Symbol)
	if err != nil {
		return fmt.Errorf("%w: %v", StoreUnavailableErr, err)
	}
	if shares > held {
		return &InsufficientSharesErr{Symbol: q.Symbol, Available: held}
	}

	txn := &types.Transaction{
		UserID:      userID,
		Symbol:      q.Symbol,
		DisplayName: q.Name,
		Shares:      shares,
		Price:       q.Price,
		Kind:        types.KindSell,
	}
	if err := tx.AppendTransaction(ctx, txn); err != nil {
		return fmt.Errorf("%w: %v", StoreUnavailableErr, err)
	}
	if err := tx.AdjustCash(ctx, userID, proceeds); err != nil {
		return fmt.Errorf("%w: %v", StoreUnavailableErr, err)
	}
	if err := tx.UpdateHoldingShares(ctx, userID, q.Symbol, held-shares); err != nil {
		return fmt.Errorf("%w: %v", StoreUnavailableErr, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", StoreUnavailableErr, err)
	}

	e.log.Info().
		Int64("user_id", userID).
		Str("symbol", q.Symbol).
		Int64("shares", shares).
		Str("price", q.Price.String()).
		Msg("sell executed")
	return nil
}

// Valuate computes a mark-to-market snapshot of the user's portfolio.
// A symbol whose quote lookup fails falls back to the newest stored
// price, marked stale; with no stored price either, the line is marked
// price-unavailable and excluded from the grand total. A single bad
// symbol never fails the whole valuation.
func (e *Engine) Valuate(ctx context.Context, userID int64) (*types.PortfolioView, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("user id %d: %w", userID, InvalidInputErr)
	}
	// Cash and holdings come from one store snapshot, so a trade
	// committing mid-valuation cannot show up in only one of the two.
	user, holdings, err := e.store.PortfolioSnapshot(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}

	view := &types.PortfolioView{
		Cash:       user.Cash,
		GrandTotal: user.Cash,
	}
	for _, h := range holdings {
		line := types.HoldingLine{Symbol: h.Symbol, Shares: h.Shares}
		if q, err := e.quotes.Lookup(ctx, h.Symbol); err == nil {
			line.Name = q.Name
			line.Price = q.Price
		} else if snap, _, perr := e.store.LatestPrice(ctx, h.Symbol); perr == nil {
			line.Name = snap.Name
			line.Price = snap.Price
			line.Stale = true
		} else {
			line.PriceUnavailable = true
			e.log.Warn().Str("symbol", h.Symbol).Err(err).Msg("no price available for valuation")
		}
		if !line.PriceUnavailable {
			line.Total = line.Price.Mul(decimal.NewFromInt(h.Shares))
			view.GrandTotal = view.GrandTotal.Add(line.Total)
		}
		view.Lines = append(view.Lines, line)
	}
	return view, nil
}

// History returns the user's trade log, newest first. An empty log is a
// valid result.
func (e *Engine) History(ctx context.Context, userID int64) ([]types.Transaction, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("user id %d: %w", userID, InvalidInputErr)
	}
	txns, err := e.store.Transactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", StoreUnavailableErr, err)
	}
	return txns, nil
}

func (e *Engine) lookup(ctx context.Context, symbol string) (*types.Quote, error) {
	q, err := e.quotes.Lookup(ctx, symbol)
	if err != nil {
		if errors.Is(err, quote.ErrSymbolNotFound) {
			return nil, fmt.Errorf("symbol %s: %w", symbol, UnknownSymbolErr)
		}
		return nil, fmt.Errorf("%w: %v", StoreUnavailableErr, err)
	}
	// Keep a snapshot of every traded price so Valuate has a stale
	// fallback for the symbol even if the quote source goes down later.
	if err := e.store.RecordPrice(ctx, q, time.Now()); err != nil {
		e.log.Warn().Err(err).Str("symbol", q.Symbol).Msg("failed to record price snapshot")
	}
	return q, nil
}

func validateOrder(userID int64, symbol string, shares int64) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	switch {
	case userID <= 0:
		return "", fmt.Errorf("user id %d: %w", userID, InvalidInputErr)
	case symbol == "":
		return "", fmt.Errorf("empty symbol: %w", InvalidInputErr)
	case shares <= 0:
		return "", fmt.Errorf("share count %d: %w", shares, InvalidInputErr)
	}
	return symbol, nil
}

func storeErr(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("%v: %w", err, InvalidInputErr)
	}
	return fmt.Errorf("%w: %v", StoreUnavailableErr, err)
}
