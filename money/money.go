/*
Package money holds monetary amounts for the payroll engine.

PURPOSE:
  Every pay figure inside the engine is an integer count of agorot (1/100 of a
  New Israeli Shekel). Shekel floats only exist at input and display
  boundaries; crossing that boundary always goes through this package so the
  rounding rule is applied in exactly one place.

KEY CONCEPTS:
  - Agorot: minor currency unit, int64
  - ToMinorUnits / ToMajorUnits: shekel <-> agorot conversion
  - Format: "1,000 ₪" / "1.50 ₪" display strings
  - Validate: bounds check for user-entered amounts (rates, bonuses)

ROUNDING:
  Conversions go through decimal.Decimal built from the shortest float
  representation, then round half away from zero. 0.1+0.2 (which is
  0.30000000000000004 as a float64) therefore converts to exactly 30 agorot.

RANGE:
  Amounts up to MaxShekels in magnitude convert exactly. Beyond that a
  float64 no longer resolves whole agorot; conversions saturate at
  ±MaxAgorot instead of wrapping, and Validate rejects them.

SEE ALSO:
  - validate.go: bounds validation and error types
  - payroll/payroll.go: tier pay rounding uses FromDecimal
*/
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGOROT
// =============================================================================

// Agorot is an amount of money in minor currency units.
type Agorot int64

// AgorotPerShekel is the minor-unit scale.
const AgorotPerShekel = 100

const (
	// MaxShekels is the largest magnitude that converts to agorot exactly.
	MaxShekels = 1e13

	// MaxAgorot and MinAgorot are where conversions saturate.
	MaxAgorot Agorot = math.MaxInt64
	MinAgorot Agorot = -math.MaxInt64
)

var (
	maxAgorotDecimal = decimal.NewFromInt(int64(MaxAgorot))
	minAgorotDecimal = decimal.NewFromInt(int64(MinAgorot))
)

// ToMinorUnits converts shekels to agorot, rounding to the nearest agora
// (half away from zero). Non-finite input converts to 0 and out-of-range
// input saturates; use Validate to reject either instead.
func ToMinorUnits(shekels float64) Agorot {
	if math.IsNaN(shekels) || math.IsInf(shekels, 0) {
		return 0
	}
	return FromDecimal(decimal.NewFromFloat(shekels).Shift(2))
}

// ToMajorUnits converts agorot to shekels.
func ToMajorUnits(a Agorot) float64 {
	return decimal.New(int64(a), -2).InexactFloat64()
}

// ToMinorUnitsPtr is ToMinorUnits for optional values: nil stays nil.
func ToMinorUnitsPtr(shekels *float64) *Agorot {
	if shekels == nil {
		return nil
	}
	a := ToMinorUnits(*shekels)
	return &a
}

// ToMajorUnitsPtr is ToMajorUnits for optional values: nil stays nil.
func ToMajorUnitsPtr(a *Agorot) *float64 {
	if a == nil {
		return nil
	}
	s := ToMajorUnits(*a)
	return &s
}

// FromDecimal rounds a fractional agorot amount to a whole agora,
// half away from zero, saturating at MinAgorot and MaxAgorot.
func FromDecimal(d decimal.Decimal) Agorot {
	r := d.Round(0)
	switch {
	case r.GreaterThan(maxAgorotDecimal):
		return MaxAgorot
	case r.LessThan(minAgorotDecimal):
		return MinAgorot
	}
	return Agorot(r.IntPart())
}

func (a Agorot) Decimal() decimal.Decimal { return decimal.NewFromInt(int64(a)) }
func (a Agorot) Shekels() float64        { return ToMajorUnits(a) }
func (a Agorot) IsZero() bool            { return a == 0 }

// String renders the amount the way Format does.
func (a Agorot) String() string { return formatAgorot(a) }
