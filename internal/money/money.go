// Package money formats integer cent amounts for user-facing messages.
// All balances and amounts are stored as int64 cents; formatting goes
// through shopspring/decimal to avoid float rounding artifacts.
package money

import (
	"github.com/shopspring/decimal"
)

// Format renders a cent amount as a decimal string with two places,
// e.g. Format(12050) == "120.50".
func Format(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// FormatWithCurrency renders a cent amount followed by its currency code,
// e.g. "120.50 CZK".
func FormatWithCurrency(cents int64, currency string) string {
	return Format(cents) + " " + currency
}
