/*
Package calendar provides the date-level context payroll needs.

PURPOSE:
  Pay rules care about calendar days, not instants: whether a shift falls on
  a holiday is decided by the date in the platform time zone. This package
  owns that mapping and the data keyed by it.

KEY CONCEPTS:
  - Date: a civil date (no time, no zone), safe as a map key
  - Period: an inclusive date range
  - DayInfo / HolidayMap: per-date holiday, rest-day and short-day flags
  - DayType: the classification payroll applies (regular, short, rest)
  - Provider: the holiday calendar lookup boundary
  - ZoneCache: read-through cache of the platform time zone

SEE ALSO:
  - day.go: DayInfo, HolidayMap, Classify
  - provider.go: Provider implementations
  - zonecache.go: ZoneCache
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - civil calendar date
// =============================================================================

const dateLayout = "2006-01-02"

// Date is a calendar day. The zero value is "no date".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes out-of-range values the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC), time.UTC)
}

// DateOf returns the calendar day of t as seen in loc. A nil loc uses t's own
// location.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t, time.UTC), nil
}

// MustParseDate is ParseDate for constants and tests.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// In returns midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Comparison
func (d Date) Before(o Date) bool        { return d.Time().Before(o.Time()) }
func (d Date) After(o Date) bool         { return d.Time().After(o.Time()) }
func (d Date) Equal(o Date) bool         { return d == o }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.Before(o) }

// Arithmetic
func (d Date) AddDays(n int) Date    { return DateOf(d.Time().AddDate(0, 0, n), time.UTC) }
func (d Date) AddMonths(n int) Date  { return DateOf(d.Time().AddDate(0, n, 0), time.UTC) }
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }
func (d Date) IsZero() bool          { return d == Date{} }
func (d Date) String() string        { return d.Time().Format(dateLayout) }

// MarshalText makes Date a JSON string and a valid JSON map key.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
