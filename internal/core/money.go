// Package core provides the pure subscription domain: money handling,
// billing-cycle date arithmetic and aggregation.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and unit representations.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents parses a positive decimal amount into cents.
//
// Both "12.34" and "12,34" are accepted; digits past the second decimal
// place round half-up, so "12.346" becomes 1235. Signs, malformed input,
// and amounts that round to zero all yield ErrInvalidAmount.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	// Signed input is rejected outright, subscriptions never cost less
	// than nothing.
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	whole, frac, _ := strings.Cut(s, ".")
	if strings.Contains(frac, ".") {
		return 0, ErrInvalidAmount
	}
	if whole == "" {
		// ".99" style input
		whole = "0"
	}
	for _, r := range whole + frac {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Guard the *100 below.
	if units > (1<<63-1)/100 {
		return 0, ErrInvalidAmount
	}

	cents := units * 100
	if len(frac) > 0 {
		cents += int64(frac[0]-'0') * 10
	}
	if len(frac) > 1 {
		cents += int64(frac[1] - '0')
	}
	if len(frac) > 2 && frac[2] >= '5' {
		cents++
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// Amount returns the monetary value in whole units as a float64.
// Normalization and aggregation work on this representation; rounding
// happens only at presentation time to avoid compounding rounding error.
func (m Money) Amount() float64 {
	return float64(m.Cents) / 100.0
}
