// Package format renders amounts for display.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var symbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

var codes = []string{"INR", "USD", "EUR", "GBP", "JPY"}

// Format renders amount with two decimals, prefixed by the symbol of code.
// Unknown codes produce the bare number. NaN and infinities render as zero.
func Format(amount float64, code string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	text := decimal.NewFromFloat(amount).StringFixed(2)
	if sym, ok := Symbol(code); ok {
		return sym + text
	}
	return text
}

// Symbol returns the display symbol of a known currency code.
func Symbol(code string) (string, bool) {
	sym, ok := symbols[strings.ToUpper(strings.TrimSpace(code))]
	return sym, ok
}

// Currencies lists the codes that have a symbol, in selector order.
func Currencies() []string {
	out := make([]string, len(codes))
	copy(out, codes)
	return out
}
