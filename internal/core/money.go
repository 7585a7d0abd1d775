package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// currencySymbols are stripped before parsing. U+FFFD is what a pound
// sign becomes when a Latin-1 export is read as UTF-8.
var currencySymbols = []string{"\uFFFD", "£", "$", "€", "¤"}

// ParseAmount parses a currency-formatted decimal string. Bank exports
// format amounts for display, so currency symbols, thousands separators
// and accounting-style negatives are accepted.
//
// Examples:
//
//	ParseAmount("£1,234.50") -> 1234.50, nil
//	ParseAmount("(12.00)")   -> -12.00, nil
//	ParseAmount("-3")        -> -3, nil
//	ParseAmount("12,34")     -> 1234, nil (comma is a thousands separator)
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	signed := false
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		signed = true
		negative = negative || s[0] == '-'
		s = strings.TrimSpace(s[1:])
	}
	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.TrimSpace(s)
	// A sign may also follow the symbol, as in "£-12.00".
	if !signed && strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}
	s = strings.ReplaceAll(s, ",", "")

	if s == "" || strings.ContainsAny(s, "+- eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// FormatAmount renders d with two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
