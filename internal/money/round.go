// Package money holds the monetary primitives shared by the ledger and
// reporting modules. All amounts are shopspring decimals; binary floats
// never carry currency values.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	fifty   = decimal.NewFromInt(50)
	one     = decimal.NewFromInt(1)

	lowCut = decimal.NewFromInt(24)
	midCut = decimal.NewFromInt(25)
	topCut = decimal.NewFromInt(51)
)

// RoundCommercial applies the shop rounding policy used for every sale
// line subtotal, based on the remainder of the amount modulo 100 FC:
//
//	remainder 0      -> unchanged
//	remainder 1..24  -> down to the hundred below
//	remainder 25..50 -> up to hundred + 50
//	remainder 51..99 -> up to the next hundred
//
// Remainders strictly between the bands (fractional amounts below 1)
// pass through unchanged. The function is idempotent.
func RoundCommercial(amount decimal.Decimal) decimal.Decimal {
	remainder := amount.Mod(hundred)
	hundreds := amount.Sub(remainder)

	switch {
	case remainder.IsZero():
		return amount
	case remainder.GreaterThanOrEqual(one) && remainder.LessThanOrEqual(lowCut):
		return hundreds
	case remainder.GreaterThanOrEqual(midCut) && remainder.LessThanOrEqual(fifty):
		return hundreds.Add(fifty)
	case remainder.GreaterThanOrEqual(topCut):
		return hundreds.Add(hundred)
	}
	return amount
}

// ParseAmount converts a textual monetary value into a decimal using
// exact decimal parsing. Values that cannot be represented exactly are
// rejected rather than silently truncated through a float.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("money: parse amount %q: %w", s, err)
	}
	return d, nil
}
