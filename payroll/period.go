package payroll

import (
	"sort"
	"time"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/money"
)

// =============================================================================
// PERIOD INPUT / OUTPUT
// =============================================================================

// PeriodInput is one employee's data for one payroll period.
type PeriodInput struct {
	EmployeeID string
	Period     calendar.Period

	// Location decides each shift's calendar date. Nil means UTC.
	Location *time.Location

	Shifts     []Shift
	HourlyRate money.Agorot
	Rules      RuleSet
	Holidays   calendar.HolidayMap
	Bonuses    []Bonus

	// PaidOneTimeBonuses lists one-time bonus IDs already paid by a run
	// over a different period. They are reported in SkippedOneTimeBonuses
	// and not paid again. Keeping this list is the caller's job; the engine
	// has no memory between calls.
	PaidOneTimeBonuses []string

	// SettledOneTimeBonuses lists one-time bonus IDs recorded as paid for
	// this very period. Recalculating the period shows them with Paid set
	// instead of dropping them.
	SettledOneTimeBonuses []string

	// Zero means money.DefaultBounds.
	Bounds money.Bounds
}

// ExclusionReason says why a shift was left out of a period.
type ExclusionReason string

const (
	ExcludedIncomplete      ExclusionReason = "incomplete"
	ExcludedMissingWorkRule ExclusionReason = "missing_work_rule"
	ExcludedInvalidDuration ExclusionReason = "invalid_duration"
)

// Excluded marks a shift that was not paid in this calculation.
type Excluded struct {
	ShiftID string          `json:"shiftId"`
	Start   time.Time       `json:"startTime"`
	Reason  ExclusionReason `json:"reason"`
	Detail  string          `json:"detail,omitempty"`
}

// BonusTotal is one distinct bonus that applied in the period.
type BonusTotal struct {
	BonusID string       `json:"bonusId"`
	Label   string       `json:"label"`
	Type    BonusType    `json:"bonusType"`
	Amount  money.Agorot `json:"amount"`

	// Paid marks a one-time bonus already recorded as paid for this period.
	Paid bool `json:"paid,omitempty"`
}

// Totals sums the computed shifts of a period.
type Totals struct {
	WorkedMinutes        int          `json:"workedMinutes"`
	RegularMinutes       int          `json:"regularMinutes"`
	OvertimeTier1Minutes int          `json:"overtimeTier1Minutes"`
	OvertimeTier2Minutes int          `json:"overtimeTier2Minutes"`
	RegularPay           money.Agorot `json:"regularPay"`
	OvertimeTier1Pay     money.Agorot `json:"overtimeTier1Pay"`
	OvertimeTier2Pay     money.Agorot `json:"overtimeTier2Pay"`
	BonusPay             money.Agorot `json:"bonusPay"`
	TotalPay             money.Agorot `json:"totalPay"`
}

// PeriodSummary is the payroll of one employee over one period.
type PeriodSummary struct {
	EmployeeID            string          `json:"employeeId,omitempty"`
	Period                calendar.Period `json:"period"`
	Shifts                []ShiftPay      `json:"shifts"`
	Excluded              []Excluded      `json:"excluded"`
	Bonuses               []BonusTotal    `json:"bonuses"`
	SkippedOneTimeBonuses []string        `json:"skippedOneTimeBonuses"`
	Totals                Totals          `json:"totals"`
}

// =============================================================================
// CALCULATION
// =============================================================================

// CalculatePeriod prices every closed shift starting inside the period.
//
// Fatal errors (returned): missing or invalid work rules, an invalid period,
// an out-of-range hourly rate or bonus amount. Open shifts, shifts of
// unknown work types and shifts with impossible durations are listed in
// Excluded while the rest of the period is still computed.
func CalculatePeriod(in PeriodInput) (PeriodSummary, error) {
	if err := in.Rules.Validate(); err != nil {
		return PeriodSummary{}, err
	}
	if err := in.Period.Validate(); err != nil {
		return PeriodSummary{}, err
	}
	bounds := boundsOrDefault(in.Bounds)
	if err := money.ValidateMinor(in.HourlyRate, bounds); err != nil {
		return PeriodSummary{}, &RecordError{Record: in.EmployeeID, Field: "hourlyRate", Err: err}
	}
	for _, b := range in.Bonuses {
		if err := b.Validate(bounds); err != nil {
			return PeriodSummary{}, err
		}
	}
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	out := PeriodSummary{
		EmployeeID:            in.EmployeeID,
		Period:                in.Period,
		Shifts:                []ShiftPay{},
		Excluded:              []Excluded{},
		Bonuses:               []BonusTotal{},
		SkippedOneTimeBonuses: []string{},
	}
	bonusIndex := make(map[string]int)
	addBonus := func(line BonusLine) int {
		i, ok := bonusIndex[line.BonusID]
		if !ok {
			i = len(out.Bonuses)
			bonusIndex[line.BonusID] = i
			out.Bonuses = append(out.Bonuses, BonusTotal{BonusID: line.BonusID, Label: line.Label, Type: line.Type})
		}
		out.Bonuses[i].Amount += line.Amount
		return i
	}

	var paidDates []calendar.Date
	for _, s := range shiftsInPeriod(in.Shifts, in.Period, loc) {
		if s.IsOpen() {
			out.Excluded = append(out.Excluded, Excluded{ShiftID: s.ID, Start: s.Start, Reason: ExcludedIncomplete})
			continue
		}
		rule, err := in.Rules.Resolve(s.WorkTypeID)
		if err != nil {
			out.Excluded = append(out.Excluded, Excluded{ShiftID: s.ID, Start: s.Start,
				Reason: ExcludedMissingWorkRule, Detail: err.Error()})
			continue
		}
		minutes, err := s.Minutes()
		if err != nil {
			out.Excluded = append(out.Excluded, Excluded{ShiftID: s.ID, Start: s.Start,
				Reason: ExcludedInvalidDuration, Detail: err.Error()})
			continue
		}

		date := s.Date(loc)
		pay := priceShift(s, minutes, rule, in.HourlyRate, in.Holidays.Lookup(date), in.Bonuses, loc)
		out.Shifts = append(out.Shifts, pay)
		paidDates = append(paidDates, date)
		out.Totals.add(pay)
		for _, line := range pay.Bonuses {
			addBonus(line)
		}
	}

	paid := idSet(in.PaidOneTimeBonuses)
	settled := idSet(in.SettledOneTimeBonuses)
	for _, b := range in.Bonuses {
		if b.Type != BonusOneTime {
			continue
		}
		// A payout recorded for this period stands even if its shifts changed.
		if !settled[b.ID] && !qualifies(b, paidDates) {
			continue
		}
		if paid[b.ID] && !settled[b.ID] {
			out.SkippedOneTimeBonuses = append(out.SkippedOneTimeBonuses, b.ID)
			continue
		}
		i := addBonus(BonusLine{BonusID: b.ID, Label: b.Label(), Type: BonusOneTime, Amount: b.AmountFixed})
		out.Bonuses[i].Paid = settled[b.ID]
		out.Totals.BonusPay += b.AmountFixed
		out.Totals.TotalPay += b.AmountFixed
	}

	return out, nil
}

// OneTimeBonusIDs lists the one-time bonuses paid in a summary, for the
// caller to record and pass back as PaidOneTimeBonuses.
func (s PeriodSummary) OneTimeBonusIDs() []string {
	var ids []string
	for _, b := range s.Bonuses {
		if b.Type == BonusOneTime {
			ids = append(ids, b.BonusID)
		}
	}
	return ids
}

func (t *Totals) add(p ShiftPay) {
	t.WorkedMinutes += p.WorkedMinutes
	t.RegularMinutes += p.RegularMinutes
	t.OvertimeTier1Minutes += p.OvertimeTier1Minutes
	t.OvertimeTier2Minutes += p.OvertimeTier2Minutes
	t.RegularPay += p.RegularPay
	t.OvertimeTier1Pay += p.OvertimeTier1Pay
	t.OvertimeTier2Pay += p.OvertimeTier2Pay
	t.BonusPay += p.BonusPay
	t.TotalPay += p.TotalPay
}

// shiftsInPeriod filters by start date and sorts by start time, then ID.
func shiftsInPeriod(shifts []Shift, p calendar.Period, loc *time.Location) []Shift {
	out := make([]Shift, 0, len(shifts))
	for _, s := range shifts {
		if p.Contains(s.Date(loc)) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// A one-time bonus qualifies when at least one paid shift falls in its window.
func qualifies(b Bonus, dates []calendar.Date) bool {
	for _, d := range dates {
		if b.ValidOn(d) {
			return true
		}
	}
	return false
}
