// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing user-typed amounts and formatting
// them back for display.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	// MaxAmountScale is the number of fractional digits an amount may carry.
	MaxAmountScale = 18
	// MaxAmountIntDigits bounds the integer part of an amount.
	MaxAmountIntDigits = 30
)

// AmountInRange reports whether d fits the bounds above. It looks only at
// the exponent and coefficient, so it stays cheap for values like 1e50000000
// whose textual form would be enormous.
func AmountInRange(d decimal.Decimal) bool {
	exp := int(d.Exponent())
	if exp < -MaxAmountScale {
		return false
	}
	return d.NumDigits()+exp <= MaxAmountIntDigits
}

// ParseAmount converts a decimal string to an exact positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents, thousands separators and zero are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("0.005")  -> 0.005, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	if parts[0] == "" {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		s = strings.TrimSuffix(s, ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() || !AmountInRange(d) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals for display.
// Stored amounts keep their full precision; this is presentation only.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
