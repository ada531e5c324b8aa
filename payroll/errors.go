/*
errors.go - Error types for the payroll engine

ERROR CATEGORIES:
  1. Configuration errors - fatal for the whole calculation call
     (ErrMissingWorkRule, ErrInvalidWorkRule)
  2. Record errors - one rate or bonus failed validation; the calculation for
     that record fails and reports which field (RecordError)
  3. Incomplete data - an open shift or an unknown work type. Inside a period
     these never surface as errors: the shift is listed in
     PeriodSummary.Excluded and the rest of the period is still computed.

USAGE:
  summary, err := payroll.CalculatePeriod(in)
  var recErr *payroll.RecordError
  if errors.As(err, &recErr) {
      // field-level message for recErr.Field
  }
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrMissingWorkRule is returned when no organization work rule was
	// supplied. There is no sensible default rate structure to fall back to.
	ErrMissingWorkRule = errors.New("organization work rule is missing")

	// ErrInvalidWorkRule is returned for negative thresholds or multipliers
	// below 1.
	ErrInvalidWorkRule = errors.New("invalid work rule")

	// ErrIncompleteShift is returned for a shift without an end time.
	ErrIncompleteShift = errors.New("shift has no end time")

	// ErrUnknownWorkType is returned when a shift references a work type the
	// rule set does not know.
	ErrUnknownWorkType = errors.New("no work rule for work type")

	// ErrInvalidBonus is returned for a malformed bonus definition.
	ErrInvalidBonus = errors.New("invalid bonus")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// RecordError reports a validation failure on one input record.
type RecordError struct {
	Record string // shift, bonus or employee id
	Field  string // e.g. "hourlyRate", "amountPerHour"
	Err    error
}

func (e *RecordError) Error() string {
	if e.Record == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Record, e.Field, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigError reports whether err makes the whole calculation impossible.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrMissingWorkRule) || errors.Is(err, ErrInvalidWorkRule)
}
