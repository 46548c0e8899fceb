// Package core provides the ledger and the amount parsing used at its boundary.
//
// This file contains the conversion between user supplied text and the
// integer amounts the ledger works with.
package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// MaxDescriptionLength bounds the description accepted from forms, in characters.
	MaxDescriptionLength = 200

	// MaxAmount bounds the magnitude of a single amount accepted from user text.
	MaxAmount int64 = 1_000_000_000_000_000
)

var (
	// ErrInvalidAmount is returned when user text is not a whole number.
	ErrInvalidAmount = errors.New("invalid amount")

	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")

	// ErrBalanceOutOfRange is returned when recording an amount would push the
	// balance past what an int64 holds.
	ErrBalanceOutOfRange = errors.New("balance out of range")
)

// InvalidAmountMessage is shown to the user when ParseAmount fails.
const InvalidAmountMessage = "Invalid amount. Please enter a number."

// ParseAmount converts user text to an integer amount.
//
// Surrounding whitespace is ignored and an optional leading sign is accepted.
// Decimals, thousands separators, empty input and magnitudes above MaxAmount
// are rejected with ErrInvalidAmount. The sign is not checked otherwise.
//
// Examples:
//
//	ParseAmount("100")   -> 100, nil
//	ParseAmount(" 42 ")  -> 42, nil
//	ParseAmount("-5")    -> -5, nil
//	ParseAmount("12.50") -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v > MaxAmount || v < -MaxAmount {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// AddOverflows reports whether balance+delta falls outside the int64 range.
func AddOverflows(balance, delta int64) bool {
	if delta > 0 {
		return balance > math.MaxInt64-delta
	}
	return balance < math.MinInt64-delta
}

// ValidateDescription checks the free-form description. Empty is allowed.
func ValidateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// FormatAmount renders an amount with a thousands separator, e.g. -1,234.
func FormatAmount(v int64) string {
	neg := v < 0
	digits := strconv.FormatInt(v, 10)
	if neg {
		digits = digits[1:]
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
