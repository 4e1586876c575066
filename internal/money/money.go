// Package money provides integer-cent arithmetic. Amounts are stored
// and transported as int64 cents; floating point only appears at the
// parsing boundary.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToCents parses a decimal currency string ("123.45", "-7", "0.005")
// into cents, rounding half away from zero.
func ToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FloatToCents(f), nil
}

// FloatToCents converts a currency value in base units to cents,
// rounding half away from zero (standard currency rounding).
func FloatToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// NormalizeForKind forces the sign of amountCents to agree with kind:
// DEBIT means negative, CREDIT positive. The absolute value is
// preserved. An unknown or empty kind leaves the amount untouched.
func NormalizeForKind(amountCents int64, kind string) int64 {
	abs := amountCents
	if abs < 0 {
		abs = -abs
	}
	switch kind {
	case "DEBIT":
		return -abs
	case "CREDIT":
		return abs
	}
	return amountCents
}

// KindForAmount derives the transaction kind from the amount sign:
// negative is DEBIT, zero or positive is CREDIT.
func KindForAmount(amountCents int64) string {
	if amountCents < 0 {
		return "DEBIT"
	}
	return "CREDIT"
}

// FormatCents renders cents as a decimal string with two places.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
