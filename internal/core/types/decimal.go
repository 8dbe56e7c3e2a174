// Package types provides common numeric types for money and weights.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors; values are only
// rounded at the presentation boundary.
type Money = decimal.Decimal

// Kg represents a weight in kilograms with full precision.
// Purchase quantities, lot weights and dyeing returns all accumulate as
// decimals so that many small entries never compound rounding error.
type Kg = decimal.Decimal

// NewMoney creates a Money value from a float.
// Prefer MustMoney / decimal.NewFromString for exact values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewKg creates a Kg value from a float.
func NewKg(f float64) Kg {
	return decimal.NewFromFloat(f)
}

// MustKg creates a Kg value from a string, panics on error.
func MustKg(s string) Kg {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns the zero decimal value.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// Round2 rounds to 2 decimal places for presentation.
// Internal accumulation keeps full precision; apply this only in DTOs.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ClampZero returns zero when d is negative, d otherwise.
// Used when a computed balance must be presented as a physical stock level.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
