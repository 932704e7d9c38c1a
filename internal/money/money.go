// Package money handles monetary amounts as int64 minor units (fils/cents).
// Fractional arithmetic beyond two decimal places goes through
// shopspring/decimal; rounding back to minor units happens only when an
// amount is recorded or presented, never inside a chained calculation.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// ParseMinor parses a decimal string like "1250.75" into minor units (125075).
func ParseMinor(input string) (int64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, ErrInvalidAmount
	}
	sign := int64(1)
	switch trimmed[0] {
	case '-':
		sign = -1
		trimmed = trimmed[1:]
	case '+':
		trimmed = trimmed[1:]
	}
	parts := strings.SplitN(trimmed, ".", 2)
	wholePart := parts[0]
	if wholePart == "" {
		wholePart = "0"
	}
	if !isDigits(wholePart) {
		return 0, ErrInvalidAmount
	}
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if len(fracPart) > 2 {
		return 0, ErrTooManyDecimals
	}
	if fracPart != "" && !isDigits(fracPart) {
		return 0, ErrInvalidAmount
	}
	whole, err := strconv.ParseInt(wholePart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	frac := int64(0)
	if len(fracPart) == 1 {
		frac = int64(fracPart[0]-'0') * 10
	} else if len(fracPart) == 2 {
		value, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, ErrInvalidAmount
		}
		frac = value
	}
	minor := whole*100 + frac
	return sign * minor, nil
}

// FormatMinor renders minor units as a two-decimal string.
func FormatMinor(value int64) string {
	negative := value < 0
	if negative {
		value = -value
	}
	whole := value / 100
	frac := value % 100
	formatted := fmt.Sprintf("%d.%02d", whole, frac)
	if negative {
		return "-" + formatted
	}
	return formatted
}

// DecimalFromMinor converts minor units to a decimal in major units.
func DecimalFromMinor(value int64) decimal.Decimal {
	return decimal.New(value, -2)
}

// MinorFromDecimal rounds a major-unit decimal to minor units. Banker's
// rounding, matching how rates are settled elsewhere in the system.
func MinorFromDecimal(value decimal.Decimal) int64 {
	return value.Mul(decimal.NewFromInt(100)).RoundBank(0).IntPart()
}

// FloorMinor truncates a non-negative major-unit decimal down to whole minor
// units. Used when apportioning a fixed total: floored parts can never sum
// past the total, so the remainder stays non-negative.
func FloorMinor(value decimal.Decimal) int64 {
	return value.Mul(decimal.NewFromInt(100)).Floor().IntPart()
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
