// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing raw amount strings coming from
// forms into validated Amounts and for summing amounts without float drift.
package core

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal string into a positive, finite Amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted.
// Zero, negative, non-numeric and overflowing values are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("0")     -> 0, ErrInvalidAmount
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	if !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) || f <= 0 {
		return 0, ErrInvalidAmount
	}
	return Amount(f), nil
}

// Decimal returns the coerced amount as a decimal for exact accumulation.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromFloat(a.Value())
}

// Sum adds the coerced values of the given amounts.
func Sum(amounts ...Amount) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.Decimal())
	}
	return total.InexactFloat64()
}
