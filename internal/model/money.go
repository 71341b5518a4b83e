package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount in the store currency.
// Prices from the backend are major units with up to two decimals ("1299.99").
type Money = decimal.Decimal

// Zero is the zero amount.
var Zero = decimal.Zero

// ParseMoney converts a decimal string to Money.
// Used for config values and form inputs; invalid or empty strings are zero.
// Examples: "99.00" → 99, "1234.5" → 1234.50, "" → 0
func ParseMoney(s string) Money {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// MustMoney is ParseMoney for literals in tests and defaults.
func MustMoney(s string) Money {
	return decimal.RequireFromString(s)
}

// NewQuantity lifts an item count into Money for multiplication.
func NewQuantity(q int) Money {
	return decimal.NewFromInt(int64(q))
}

// RoundMoney rounds half away from zero to cents.
func RoundMoney(m Money) Money {
	return m.Round(2)
}

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(m Money) string {
	return m.StringFixed(2)
}
