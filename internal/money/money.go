// Package money holds the numeric rules shared by the split allocator and the
// balance engine.
//
// Amounts are decimal values with two places of precision. Rounding is half away
// from zero, and two amounts are considered equal when they differ by less than
// one cent (Tolerance).
package money

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places every settled amount carries.
const Places = 2

var (
	// ErrInvalidAmount is returned for totals that are not finite positive numbers.
	ErrInvalidAmount = errors.New("amount must be a positive number")

	// Tolerance is the smallest difference treated as real money (one cent).
	Tolerance = decimal.New(1, -Places)
)

// Round2 rounds to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Parse converts operator-entered text into a positive amount.
//
// Both dot and comma decimal separators are accepted ("12.34", "12,34").
// Empty, non-numeric, zero and negative input all yield ErrInvalidAmount.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseNonNegative is Parse for values that may legitimately be zero, such as
// a manual split amount or a share weight.
func ParseNonNegative(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FromFloat converts a float total, rejecting NaN, infinities and non-positive values.
func FromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	return decimal.NewFromFloat(f), nil
}

// NearZero reports whether |d| is below one cent.
func NearZero(d decimal.Decimal) bool {
	return d.Abs().LessThan(Tolerance)
}

// Matches reports whether a and b differ by less than one cent.
func Matches(a, b decimal.Decimal) bool {
	return NearZero(a.Sub(b))
}

// Sum adds up amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Format renders an amount with exactly two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
