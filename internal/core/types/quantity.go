// Package types provides the decimal quantity type shared by the ledger,
// the balances and the requirement resolver.
package types

import (
	"github.com/shopspring/decimal"
)

// Quantity is a stock quantity with full decimal precision.
// Stored as NUMERIC in Postgres.
type Quantity = decimal.Decimal

// StockScale is the number of decimal places the ledger and balance
// columns keep (NUMERIC(18, 4)).
const StockScale = 4

// FitsStockScale reports whether q can be stored without rounding.
func FitsStockScale(q Quantity) bool {
	return q.Equal(q.Truncate(StockScale))
}

// NewQuantity parses a decimal string such as "12.5".
func NewQuantity(s string) (Quantity, error) {
	return decimal.NewFromString(s)
}

// MustQuantity parses a decimal string, panics on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	return decimal.RequireFromString(s)
}

// QuantityFromInt creates a whole-number quantity.
func QuantityFromInt(v int64) Quantity {
	return decimal.NewFromInt(v)
}

// ZeroQuantity returns a zero quantity.
func ZeroQuantity() Quantity {
	return decimal.Zero
}

// SumQuantities adds all values.
func SumQuantities(values ...Quantity) Quantity {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// OrZero dereferences q or returns zero for nil.
func OrZero(q *Quantity) Quantity {
	if q == nil {
		return decimal.Zero
	}
	return *q
}
