package calendar

import (
	"errors"
	"time"
)

// ErrInvalidPeriod is returned when a period ends before it starts.
var ErrInvalidPeriod = errors.New("invalid period: end before start")

// =============================================================================
// PERIOD - inclusive date range
// =============================================================================

// Period is the date range a payroll summary covers, both ends inclusive.
type Period struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

// MonthPeriod returns the first to last day of a month.
func MonthPeriod(year int, month time.Month) Period {
	first := NewDate(year, month, 1)
	return Period{From: first, To: first.AddMonths(1).AddDays(-1)}
}

// Validate rejects reversed or empty bounds.
func (p Period) Validate() error {
	if p.From.IsZero() || p.To.IsZero() || p.To.Before(p.From) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains reports whether d lies in [From, To].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.From) && d.BeforeOrEqual(p.To)
}

// Days returns every date in the period.
func (p Period) Days() []Date {
	var days []Date
	for d := p.From; d.BeforeOrEqual(p.To); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Overlaps reports whether an optional [from, to] window shares at least one
// day with the period. A nil bound is open on that side.
func (p Period) Overlaps(from, to *Date) bool {
	if from != nil && from.After(p.To) {
		return false
	}
	if to != nil && to.Before(p.From) {
		return false
	}
	return true
}

// Bounds returns the instants [start, end) covering the period in loc.
func (p Period) Bounds(loc *time.Location) (time.Time, time.Time) {
	return p.From.In(loc), p.To.AddDays(1).In(loc)
}

func (p Period) String() string {
	return "[" + p.From.String() + ", " + p.To.String() + "]"
}

// WindowContains reports whether d lies in an optional inclusive window.
func WindowContains(from, to *Date, d Date) bool {
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}
