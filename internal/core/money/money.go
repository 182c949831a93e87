// Package money provides the decimal amount type used for prices and totals.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// CurrencyPrefix is printed in front of every amount on rendered documents.
const CurrencyPrefix = "Rs."

// Places is the number of fractional digits amounts are rounded to.
const Places = 2

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// NewFromInt converts a whole amount.
func NewFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// Round rounds half away from zero to two places. For the non-negative
// amounts accepted on invoices this is plain half-up rounding.
func Round(m Money) Money {
	return m.Round(Places)
}

// MustParse creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustParse(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseNonNegative parses a user supplied amount.
func ParseNonNegative(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero(), fmt.Errorf("not a number: %q", s)
	}
	if d.IsNegative() {
		return Zero(), fmt.Errorf("negative amount: %q", s)
	}
	return d, nil
}

// Format renders an amount as "Rs.1234.50".
func Format(m Money) string {
	return CurrencyPrefix + m.StringFixed(Places)
}
