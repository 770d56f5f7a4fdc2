// Package calc holds the ratio helpers every report section relies on.
//
// Both helpers work on decimal.NullDecimal so that a missing figure (an
// absent historical snapshot, an empty spreadsheet cell) degrades to a
// default instead of aborting the computation.
package calc

import "github.com/shopspring/decimal"

// Null is the missing value.
var Null = decimal.NullDecimal{}

// Valid wraps d as a present value.
func Valid(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// SafeDivide returns numerator / denominator, or def when the denominator is
// null or exactly zero. A null numerator counts as zero. It never panics.
func SafeDivide(numerator, denominator decimal.NullDecimal, def decimal.Decimal) decimal.Decimal {
	if !denominator.Valid || denominator.Decimal.IsZero() {
		return def
	}
	n := decimal.Zero
	if numerator.Valid {
		n = numerator.Decimal
	}
	return n.Div(denominator.Decimal)
}

// PercentageChange returns (current - previous) / previous as a ratio
// (0.10 for +10%). The result is null when previous is null or zero.
// A null current counts as zero.
func PercentageChange(current, previous decimal.NullDecimal) decimal.NullDecimal {
	if !previous.Valid || previous.Decimal.IsZero() {
		return Null
	}
	c := decimal.Zero
	if current.Valid {
		c = current.Decimal
	}
	return Valid(c.Sub(previous.Decimal).Div(previous.Decimal))
}
