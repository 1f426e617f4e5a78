package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is an account holder. Cash is only ever mutated by the portfolio
// engine's buy/sell operations.
type User struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	Cash         decimal.Decimal `json:"cash"`
	CreatedAt    time.Time       `json:"createdAt"`
}
