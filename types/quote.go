package types

import "github.com/shopspring/decimal"

// Quote is the lookup result for a single symbol, priced in the
// accounting currency.
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}
