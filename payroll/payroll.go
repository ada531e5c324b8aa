/*
Package payroll computes shift pay from worked minutes, work rules, holiday
flags and bonuses.

PURPOSE:
  This is the calculation engine. Every function is pure: inputs arrive as
  plain values (no store, no request context, no globals) and a new result is
  returned on every call. Callers fetch data, resolve the time zone and pass
  everything in.

KEY CONCEPTS:
  - WorkRule / RuleSet: thresholds and multipliers per organization/work type
  - Classify: minutes -> regular / overtime tier 1 / overtime tier 2
  - CalculateShift: itemized pay for one shift
  - CalculatePeriod: ordered per-shift breakdown plus totals for a date range
  - CalculateBatch: many employees' periods in parallel

ROUNDING POLICY:
  Pay is integer agorot. Each tier line is computed exactly

    minutes × hourlyRate × multiplier / 60

  and rounded to the nearest agora (half away from zero) on its own. Totals
  are sums of already-rounded lines, so a summary always adds up to the lines
  it displays.

REST DAYS:
  On a rest day (holiday or Sabbath) every tier is also multiplied by the
  holiday multiplier: regular minutes pay 1 × holiday, overtime pays
  tier × holiday.

SHIFT DATE:
  A shift belongs to the calendar date of its start in the supplied
  location. An overnight shift starting on a holiday is paid as a holiday
  shift in full.

SEE ALSO:
  - classify.go: tier split, multipliers, labels
  - bonus.go: bonus definitions
  - period.go: period aggregation
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/money"
	"github.com/warp/shift-payroll/shifttime"
)

var minutesPerHour = decimal.NewFromInt(60)

// =============================================================================
// SHIFT - input record
// =============================================================================

// Shift is one work period as stored by the attendance system.
type Shift struct {
	ID         string     `json:"id"`
	Start      time.Time  `json:"startTime"`
	End        *time.Time `json:"endTime"`
	IsRetro    bool       `json:"isRetro"`
	WorkTypeID string     `json:"workTypeId,omitempty"`
}

// IsOpen reports whether the shift is still in progress.
func (s Shift) IsOpen() bool { return s.End == nil }

// Minutes returns the worked minutes of a closed shift.
func (s Shift) Minutes() (int, error) {
	if s.End == nil {
		return 0, ErrIncompleteShift
	}
	return shifttime.Between(s.Start, *s.End)
}

// Date is the calendar date of the shift start in loc.
func (s Shift) Date(loc *time.Location) calendar.Date {
	return calendar.DateOf(s.Start, loc)
}

// =============================================================================
// SHIFT PAY - output record
// =============================================================================

// PayLine is one tier of one shift.
type PayLine struct {
	Tier       Tier            `json:"tier"`
	Label      string          `json:"label"`
	Minutes    int             `json:"minutes"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Pay        money.Agorot    `json:"pay"`
}

// ShiftPay is the itemized pay of one shift. All amounts are agorot.
type ShiftPay struct {
	ShiftID    string           `json:"shiftId"`
	Date       calendar.Date    `json:"date"`
	Start      time.Time        `json:"startTime"`
	End        time.Time        `json:"endTime"`
	IsRetro    bool             `json:"isRetro"`
	WorkTypeID string           `json:"workTypeId,omitempty"`
	DayType    calendar.DayType `json:"dayType"`

	WorkedMinutes        int `json:"workedMinutes"`
	RegularMinutes       int `json:"regularMinutes"`
	OvertimeTier1Minutes int `json:"overtimeTier1Minutes"`
	OvertimeTier2Minutes int `json:"overtimeTier2Minutes"`

	RegularPay       money.Agorot `json:"regularPay"`
	OvertimeTier1Pay money.Agorot `json:"overtimeTier1Pay"`
	OvertimeTier2Pay money.Agorot `json:"overtimeTier2Pay"`
	BonusPay         money.Agorot `json:"bonusPay"`
	TotalPay         money.Agorot `json:"totalPay"`

	Lines   []PayLine   `json:"lines"`
	Bonuses []BonusLine `json:"bonuses"`
}

// ShiftInput is everything needed to price one shift.
type ShiftInput struct {
	Shift      Shift
	Rule       WorkRule
	HourlyRate money.Agorot
	Day        calendar.DayInfo

	// Hourly bonuses valid on the shift date are applied. One-time bonuses
	// are ignored here; they belong to a period.
	Bonuses []Bonus

	// Location decides the shift date. Nil means UTC.
	Location *time.Location

	// Bounds for the hourly rate and bonus amounts. Zero means
	// money.DefaultBounds.
	Bounds money.Bounds
}

// CalculateShift validates the inputs and prices one closed shift.
func CalculateShift(in ShiftInput) (ShiftPay, error) {
	bounds := boundsOrDefault(in.Bounds)
	if err := in.Rule.Validate(); err != nil {
		return ShiftPay{}, err
	}
	if err := validateRate(in.HourlyRate, bounds); err != nil {
		return ShiftPay{}, err
	}
	for _, b := range in.Bonuses {
		if err := b.Validate(bounds); err != nil {
			return ShiftPay{}, err
		}
	}
	minutes, err := in.Shift.Minutes()
	if err != nil {
		return ShiftPay{}, &RecordError{Record: in.Shift.ID, Field: "endTime", Err: err}
	}
	return priceShift(in.Shift, minutes, in.Rule, in.HourlyRate, in.Day, in.Bonuses, in.Location), nil
}

// priceShift assumes validated inputs and a closed shift.
func priceShift(s Shift, minutes int, rule WorkRule, rate money.Agorot, day calendar.DayInfo, bonuses []Bonus, loc *time.Location) ShiftPay {
	if loc == nil {
		loc = time.UTC
	}
	c := Classify(minutes, day, rule)
	date := s.Date(loc)

	out := ShiftPay{
		ShiftID:              s.ID,
		Date:                 date,
		Start:                s.Start,
		End:                  *s.End,
		IsRetro:              s.IsRetro,
		WorkTypeID:           s.WorkTypeID,
		DayType:              c.DayType,
		WorkedMinutes:        c.Minutes.Total(),
		RegularMinutes:       c.Minutes.Regular,
		OvertimeTier1Minutes: c.Minutes.Tier1,
		OvertimeTier2Minutes: c.Minutes.Tier2,
		Lines:                []PayLine{},
		Bonuses:              []BonusLine{},
	}

	for _, t := range Tiers {
		m := c.Minutes.Of(t)
		if m == 0 {
			continue
		}
		mult := rule.Multiplier(t, c.DayType)
		pay := TierPay(m, rate, mult)
		out.Lines = append(out.Lines, PayLine{
			Tier:       t,
			Label:      TierLabel(t, c.DayType, mult),
			Minutes:    m,
			Multiplier: mult,
			Pay:        pay,
		})
		switch t {
		case TierRegular:
			out.RegularPay = pay
		case TierOvertime1:
			out.OvertimeTier1Pay = pay
		case TierOvertime2:
			out.OvertimeTier2Pay = pay
		}
	}

	for _, b := range bonuses {
		if b.Type != BonusHourly || !b.ValidOn(date) {
			continue
		}
		amount := TierPay(out.WorkedMinutes, b.AmountPerHour, decimal.NewFromInt(1))
		out.Bonuses = append(out.Bonuses, BonusLine{
			BonusID: b.ID,
			Label:   b.Label(),
			Type:    BonusHourly,
			Minutes: out.WorkedMinutes,
			Amount:  amount,
		})
		out.BonusPay += amount
	}

	out.TotalPay = out.RegularPay + out.OvertimeTier1Pay + out.OvertimeTier2Pay + out.BonusPay
	return out
}

// TierPay prices minutes at an hourly rate and multiplier, rounded to the
// nearest agora.
func TierPay(minutes int, hourlyRate money.Agorot, multiplier decimal.Decimal) money.Agorot {
	if minutes == 0 || hourlyRate == 0 {
		return 0
	}
	exact := decimal.NewFromInt(int64(minutes)).
		Mul(hourlyRate.Decimal()).
		Mul(multiplier).
		Div(minutesPerHour)
	return money.FromDecimal(exact)
}

func validateRate(rate money.Agorot, bounds money.Bounds) error {
	if err := money.ValidateMinor(rate, bounds); err != nil {
		return &RecordError{Field: "hourlyRate", Err: err}
	}
	return nil
}

func boundsOrDefault(b money.Bounds) money.Bounds {
	if b == (money.Bounds{}) {
		return money.DefaultBounds
	}
	return b
}
