/*
Package shifttime converts wall-clock entries and timestamps into worked
minutes.

PURPOSE:
  Shifts reach the engine either as timestamp pairs (live clock-in/out) or as
  "HH:MM" pairs typed in by a manager (retro shifts). Both end up as an
  integer number of minutes, which is the only duration unit the payroll
  package understands.

MIDNIGHT WRAPAROUND:
  A wall-clock shift whose end is not after its start crosses midnight:

    22:00 -> 06:00  =  (1440 - 1320) + 360  =  480 minutes

  start == end is rejected (ErrZeroLength) rather than read as a 24 hour
  shift, so a typo never credits a full day.

LIMITS:
  No single shift may exceed MaxShiftMinutes (16 hours).

SEE ALSO:
  - payroll/payroll.go: uses Between for timestamp shifts
*/
package shifttime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CONSTANTS & ERRORS
// =============================================================================

const (
	MinutesPerDay   = 24 * 60
	MaxShiftMinutes = 16 * 60
)

var (
	// ErrZeroLength is returned when start and end are the same wall-clock time.
	ErrZeroLength = errors.New("shift start and end are equal")

	// ErrTooLong is returned when a shift is longer than MaxShiftMinutes.
	ErrTooLong = errors.New("shift exceeds maximum length")

	// ErrEndBeforeStart is returned for timestamp pairs in the wrong order.
	ErrEndBeforeStart = errors.New("shift ends before it starts")

	// ErrInvalidTime is the sentinel behind every ParseError.
	ErrInvalidTime = errors.New("invalid time")
)

// ParseError reports why a time string was rejected.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid time %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrInvalidTime }

// =============================================================================
// CLOCK - wall-clock time of day
// =============================================================================

// Clock is a time of day with minute precision.
type Clock struct {
	Hours   int
	Minutes int
}

// ParseTime parses "H:M", "HH:MM" and mixed forms such as "9:05" or "09:5".
func ParseTime(text string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 2 {
		return Clock{}, &ParseError{Input: text, Reason: "expected HH:MM"}
	}
	h, ok := parseComponent(parts[0])
	if !ok {
		return Clock{}, &ParseError{Input: text, Reason: "hours must be one or two digits"}
	}
	m, ok := parseComponent(parts[1])
	if !ok {
		return Clock{}, &ParseError{Input: text, Reason: "minutes must be one or two digits"}
	}
	if h > 23 {
		return Clock{}, &ParseError{Input: text, Reason: "hours out of range 0-23"}
	}
	if m > 59 {
		return Clock{}, &ParseError{Input: text, Reason: "minutes out of range 0-59"}
	}
	return Clock{Hours: h, Minutes: m}, nil
}

func parseComponent(s string) (int, bool) {
	if len(s) < 1 || len(s) > 2 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// MustParseTime is ParseTime for constants; it panics on bad input.
func MustParseTime(text string) Clock {
	c, err := ParseTime(text)
	if err != nil {
		panic(err)
	}
	return c
}

// MinuteOfDay returns minutes since midnight.
func (c Clock) MinuteOfDay() int { return c.Hours*60 + c.Minutes }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hours, c.Minutes) }

// On returns the instant at this time of day on date's calendar day in loc.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hours, c.Minutes, 0, 0, loc)
}

// =============================================================================
// DURATIONS
// =============================================================================

// Duration returns the minutes worked between two wall-clock times, wrapping
// past midnight when end is not after start.
func Duration(start, end Clock) (int, error) {
	s, e := start.MinuteOfDay(), end.MinuteOfDay()
	if s == e {
		return 0, ErrZeroLength
	}
	d := e - s
	if d <= 0 {
		d = (MinutesPerDay - s) + e
	}
	if d > MaxShiftMinutes {
		return 0, ErrTooLong
	}
	return d, nil
}

// DurationMinutes parses two "HH:MM" strings and returns Duration.
func DurationMinutes(start, end string) (int, error) {
	s, err := ParseTime(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseTime(end)
	if err != nil {
		return 0, err
	}
	return Duration(s, e)
}

// Between returns whole minutes from start to end, truncating seconds.
// A zero result is valid: the shift simply earns nothing.
func Between(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, ErrEndBeforeStart
	}
	d := int(end.Sub(start) / time.Minute)
	if d > MaxShiftMinutes {
		return 0, ErrTooLong
	}
	return d, nil
}

// ShiftBounds turns a retro entry (a date plus start/end wall-clock times)
// into timestamps. The end lands on the following day when the shift wraps.
func ShiftBounds(date time.Time, start, end Clock, loc *time.Location) (time.Time, time.Time, error) {
	d, err := Duration(start, end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from := start.On(date, loc)
	return from, from.Add(time.Duration(d) * time.Minute), nil
}

// FormatMinutes renders minutes as "H:MM" with unpadded hours.
func FormatMinutes(total int) string {
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}
	return fmt.Sprintf("%s%d:%02d", sign, total/60, total%60)
}
