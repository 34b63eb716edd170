package utils

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var errInvalidQuantity = errors.New("invalid quantity")

// ParseQuantity parses a user-entered quantity cell.
// Accepts common spreadsheet-formatted strings like:
// - "20,000"
// - " -36,000 "
// - "1,234.50"
//
// Keep digits, '.', and a leading '-' only. Anything unparseable falls back
// to zero: cell edits never surface a parse error to the caller.
func ParseQuantity(raw string) decimal.Decimal {
	d, err := parseQuantity(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseQuantityStrict is ParseQuantity without the fallback. Used where a bad
// value should be reported instead of silently zeroed (shipment imports).
func ParseQuantityStrict(raw string) (decimal.Decimal, error) {
	return parseQuantity(raw)
}

func parseQuantity(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s != "" {
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimSpace(s)
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	// Strip everything except digits and '.'.
	var b strings.Builder
	b.Grow(len(s) + 1)
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return decimal.Zero, errInvalidQuantity
	}
	if neg {
		clean = "-" + clean
	}
	return decimal.NewFromString(clean)
}
