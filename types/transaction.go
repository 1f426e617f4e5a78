package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	KindBuy  TransactionKind = "BUY"
	KindSell TransactionKind = "SELL"
)

// Transaction is one row of the append-only trade log. Rows are never
// updated or deleted once written.
type Transaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	Symbol      string          `json:"symbol"`
	DisplayName string          `json:"displayName"`
	Shares      int64           `json:"shares"`
	Price       decimal.Decimal `json:"price"`
	Kind        TransactionKind `json:"kind"`
	CreatedAt   time.Time       `json:"createdAt"`
}
