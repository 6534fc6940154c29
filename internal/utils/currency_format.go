package utils

import (
	"github.com/shopspring/decimal"
)

// FormatWithPrecision formats an amount with the given precision
// Example: amount 12.3456 with precision 2 returns "12.35"
func FormatWithPrecision(amount decimal.Decimal, precision int) string {
	return amount.Round(int32(precision)).StringFixed(int32(precision))
}

// FormatMoney renders an amount with two decimals followed by the currency code.
func FormatMoney(amount decimal.Decimal, currency string) string {
	if currency == "" {
		return FormatWithPrecision(amount, 2)
	}
	return FormatWithPrecision(amount, 2) + " " + currency
}
