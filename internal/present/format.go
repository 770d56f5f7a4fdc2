// Package present turns computed report tables into display strings and
// writes the report workbook.
package present

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency, or an unknown one, is given.
const DefaultCurrency = money.CNY

// ValidCurrency reports whether code is an ISO 4217 code go-money knows.
func ValidCurrency(code string) bool {
	return money.GetCurrency(strings.ToUpper(code)) != nil
}

// FormatCurrency renders v with the thousands separators, decimals and
// symbol of currency. A null value renders as zero. Amounts are rounded
// half away from zero to the currency's minor unit.
func FormatCurrency(v decimal.NullDecimal, currency string) string {
	cur := money.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		cur = money.GetCurrency(DefaultCurrency)
	}
	amount := decimal.Zero
	if v.Valid {
		amount = v.Decimal
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}

// FormatPercent renders a ratio as a percentage with two decimals; 0.05 is
// "+5.00%". Positive values carry an explicit sign. A null ratio renders
// as "0.00%".
func FormatPercent(v decimal.NullDecimal) string {
	if !v.Valid {
		return "0.00%"
	}
	pct := v.Decimal.Shift(2).Round(2)
	if pct.IsPositive() {
		return "+" + pct.StringFixed(2) + "%"
	}
	return pct.StringFixed(2) + "%"
}
