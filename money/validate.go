package money

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotFinite is returned for NaN and ±Inf amounts.
	ErrNotFinite = errors.New("amount is not a finite number")

	// ErrBelowMinimum is returned when an amount is under Bounds.Min.
	ErrBelowMinimum = errors.New("amount below minimum")

	// ErrAboveMaximum is returned when an amount is over Bounds.Max.
	ErrAboveMaximum = errors.New("amount above maximum")

	// ErrOutOfRange is returned for amounts beyond ±MaxShekels.
	ErrOutOfRange = errors.New("amount outside the representable range")

	// ErrInvalidBounds is returned by Bounds.Validate.
	ErrInvalidBounds = errors.New("invalid amount bounds")
)

// Bounds is an inclusive shekel range.
type Bounds struct {
	Min float64
	Max float64
}

// DefaultBounds accepts 0 to 100,000 shekels.
var DefaultBounds = Bounds{Min: 0, Max: 100000}

// Validate checks that Min <= Max and both fit within ±MaxShekels.
func (b Bounds) Validate() error {
	for _, v := range []float64{b.Min, b.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxShekels {
			return fmt.Errorf("%w: %v is outside ±%v", ErrInvalidBounds, v, MaxShekels)
		}
	}
	if b.Min > b.Max {
		return fmt.Errorf("%w: min %v > max %v", ErrInvalidBounds, b.Min, b.Max)
	}
	return nil
}

// AmountError describes a rejected amount.
type AmountError struct {
	Amount float64
	Bounds Bounds
	Err    error
}

func (e *AmountError) Error() string {
	switch {
	case errors.Is(e.Err, ErrBelowMinimum):
		return fmt.Sprintf("%v: %v < %v", e.Err, e.Amount, e.Bounds.Min)
	case errors.Is(e.Err, ErrAboveMaximum):
		return fmt.Sprintf("%v: %v > %v", e.Err, e.Amount, e.Bounds.Max)
	default:
		return e.Err.Error()
	}
}

func (e *AmountError) Unwrap() error { return e.Err }

// Validate checks a user-entered shekel amount against b and returns it in
// agorot. Failures are *AmountError values, never panics.
func Validate(amount float64, b Bounds) (Agorot, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, &AmountError{Amount: amount, Bounds: b, Err: ErrNotFinite}
	}
	if math.Abs(amount) > MaxShekels {
		return 0, &AmountError{Amount: amount, Bounds: b, Err: ErrOutOfRange}
	}
	if amount < b.Min {
		return 0, &AmountError{Amount: amount, Bounds: b, Err: ErrBelowMinimum}
	}
	if amount > b.Max {
		return 0, &AmountError{Amount: amount, Bounds: b, Err: ErrAboveMaximum}
	}
	return ToMinorUnits(amount), nil
}

// ValidateMinor applies the same bounds to an amount already held in agorot.
func ValidateMinor(a Agorot, b Bounds) error {
	_, err := Validate(ToMajorUnits(a), b)
	return err
}
