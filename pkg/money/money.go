// Package money provides exact decimal price values.
//
// Catalog prices arrive as free-form text ("$12.99", "1,234.50") and cart
// totals are sums of quantity-multiplied line prices, so every amount is kept
// as an exact decimal. Binary floating point is never used for price math.
package money

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount. The zero value is $0.00 and is safe to
// use directly.
type Money struct {
	d decimal.Decimal
}

// Everything except digits and the decimal point is stripped before parsing,
// so currency symbols and thousands separators are tolerated.
var nonAmount = regexp.MustCompile(`[^0-9.]`)

// Parse extracts an exact amount from free-form price text. On failure the
// returned Money is zero and the error describes the input; display paths use
// the zero amount and leave logging to the caller.
func Parse(text string) (Money, error) {
	cleaned := nonAmount.ReplaceAllString(text, "")
	if cleaned == "" {
		return Money{}, fmt.Errorf("money: no amount in %q", text)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", text, err)
	}
	return Money{d: d}, nil
}

// Format renders the amount with two decimal places and a currency prefix,
// e.g. "$12.50".
func (m Money) Format() string {
	return "$" + m.d.StringFixed(2)
}

// String implements fmt.Stringer.
func (m Money) String() string { return m.Format() }

// MulInt multiplies the amount by an integer quantity exactly.
func (m Money) MulInt(qty int) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(int64(qty)))}
}

// Add returns m plus other exactly.
func (m Money) Add(other Money) Money {
	return Money{d: m.d.Add(other.d)}
}

// Sum adds any number of amounts exactly.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Equal reports whether two amounts are numerically equal, ignoring exponent
// representation ($1.5 equals $1.50).
func (m Money) Equal(other Money) bool {
	return m.d.Equal(other.d)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}
