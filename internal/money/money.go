// Package money converts between decimal price strings and integer minor units.
package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrTooPrecise     = errors.New("amount has more than two decimal places")
)

// ParseCents converts a decimal string such as "19.99" into minor units (1999).
func ParseCents(value string) (int64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	return FromDecimal(d)
}

// FromDecimal converts a decimal amount in major units into minor units.
func FromDecimal(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}

	cents := d.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, ErrTooPrecise
	}
	if cents.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}

	return cents.IntPart(), nil
}

// ToDecimal converts minor units into a decimal amount in major units.
func ToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatCents renders minor units with exactly two decimal places.
func FormatCents(cents int64) string {
	return ToDecimal(cents).StringFixed(2)
}
