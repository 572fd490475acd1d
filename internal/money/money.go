// Package money implements the exact-decimal arithmetic contract the
// simulation engine depends on: every balance, tax amount, FX-converted
// flow, and realized gain is a Decimal, never a float64.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Precision is the number of significant digits the engine carries
// through decimal arithmetic, per the 20-significant-digit contract.
const Precision = 20

func init() {
	decimal.DivisionPrecision = Precision
}

// Decimal is the engine's money type. It is a thin alias over
// shopspring/decimal.Decimal so call sites read like ordinary Go
// arithmetic. Round rounds half to even; divisions done with DivRound
// (or Div) at Precision places round half away from zero instead.
type Decimal = decimal.Decimal

// Zero is the additive identity.
var Zero = decimal.Zero

// New constructs a Decimal from an integer value and exponent, exactly
// like decimal.New — exposed so callers never import shopspring/decimal
// directly.
func New(value int64, exp int32) Decimal {
	return decimal.New(value, exp)
}

// NewFromFloat builds a Decimal from a float64. The engine uses it
// wherever a float64 quantity (a Gaussian draw, an interest, yield,
// penalty, or tax rate) multiplies a Money value.
func NewFromFloat(f float64) Decimal {
	return decimal.NewFromFloat(f)
}

// NewFromString parses a decimal literal, returning an error on
// malformed input. Used when decoding request JSON fields that are
// transmitted as strings to avoid float round-trip loss.
func NewFromString(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("money: invalid decimal %q: %w", s, err)
	}
	return d, nil
}

// Round applies banker's rounding (round-half-to-even) to Precision
// significant digits. shopspring/decimal's RoundBank implements
// round-half-to-even directly; Round picks the number of decimal
// places from the position of d's leading digit.
func Round(d Decimal) Decimal {
	if d.IsZero() {
		return d
	}
	abs := d.Abs()
	// Find e with 10^e <= |d| < 10^(e+1): the leading digit's position.
	e := int32(0)
	for abs.GreaterThanOrEqual(decimal.New(1, e+1)) {
		e++
	}
	for abs.LessThan(decimal.New(1, e)) {
		e--
	}
	return d.RoundBank(int32(Precision) - 1 - e)
}

// Max returns the larger of a and b.
func Max(a, b Decimal) Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b Decimal) Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Clamp restricts d to [lo, hi].
func Clamp(d, lo, hi Decimal) Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// IsNegative reports whether d is strictly less than zero.
func IsNegative(d Decimal) bool {
	return d.LessThan(Zero)
}

// ToFloat64 converts to a display/JSON double. Per the concurrency
// model, this conversion happens only at output serialization — never
// inside the day-step kernel.
func ToFloat64(d Decimal) float64 {
	f, _ := d.Float64()
	return f
}
