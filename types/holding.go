package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is the maintained position for one (user, symbol) pair.
type Holding struct {
	UserID    int64     `json:"userId"`
	Symbol    string    `json:"symbol"`
	Shares    int64     `json:"shares"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HoldingLine is one priced row of a portfolio valuation. When no live
// quote was available the line either carries the newest stored price
// (Stale) or no price at all (PriceUnavailable), in which case Total is
// zero and the line is excluded from the grand total.
type HoldingLine struct {
	Symbol           string          `json:"symbol"`
	Name             string          `json:"name,omitempty"`
	Shares           int64           `json:"shares"`
	Price            decimal.Decimal `json:"price"`
	Total            decimal.Decimal `json:"total"`
	Stale            bool            `json:"stale,omitempty"`
	PriceUnavailable bool            `json:"priceUnavailable,omitempty"`
}

// PortfolioView is a point-in-time valuation snapshot. Lines keep the
// acquisition order of the underlying holdings.
type PortfolioView struct {
	Cash       decimal.Decimal `json:"cash"`
	Lines      []HoldingLine   `json:"holdings"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}
