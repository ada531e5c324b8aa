package payroll

import (
	"github.com/shopspring/decimal"
	"github.com/warp/shift-payroll/calendar"
)

// =============================================================================
// TIERS
// =============================================================================

// Tier is a band of worked minutes paid at one multiplier.
type Tier string

const (
	TierRegular   Tier = "regular"
	TierOvertime1 Tier = "overtime_1"
	TierOvertime2 Tier = "overtime_2"
)

// Tiers lists tiers from cheapest to most expensive.
var Tiers = []Tier{TierRegular, TierOvertime1, TierOvertime2}

// TierMinutes splits a shift's minutes across tiers.
type TierMinutes struct {
	Regular int `json:"regular"`
	Tier1   int `json:"overtimeTier1"`
	Tier2   int `json:"overtimeTier2"`
}

func (m TierMinutes) Total() int { return m.Regular + m.Tier1 + m.Tier2 }

// Of returns the minutes in one tier.
func (m TierMinutes) Of(t Tier) int {
	switch t {
	case TierOvertime1:
		return m.Tier1
	case TierOvertime2:
		return m.Tier2
	default:
		return m.Regular
	}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classification is the tier split of one shift on one kind of day.
type Classification struct {
	DayType   calendar.DayType
	Threshold int // standard minutes that applied
	Minutes   TierMinutes
}

// Classify splits worked minutes into tiers. The regular threshold is the
// short-day standard on short days. A shift ending exactly on a boundary
// stays in the cheaper tier. Negative minutes are treated as zero.
func Classify(minutes int, day calendar.DayInfo, rule WorkRule) Classification {
	dt := calendar.Classify(day)
	threshold := rule.StandardDailyMinutes
	if dt == calendar.DayShort {
		threshold = rule.ShortDayStandardMinutes
	}
	if minutes < 0 {
		minutes = 0
	}

	regular := min(minutes, threshold)
	overtime := minutes - regular
	tier1 := min(overtime, rule.OvertimeTier1Minutes)

	return Classification{
		DayType:   dt,
		Threshold: threshold,
		Minutes: TierMinutes{
			Regular: regular,
			Tier1:   tier1,
			Tier2:   overtime - tier1,
		},
	}
}

// Multiplier is the effective rate multiplier for a tier on a day type. On a
// rest day the holiday multiplier compounds with the tier multiplier.
func (r WorkRule) Multiplier(t Tier, dt calendar.DayType) decimal.Decimal {
	m := decimal.NewFromInt(1)
	switch t {
	case TierOvertime1:
		m = r.OvertimeTier1Multiplier
	case TierOvertime2:
		m = r.OvertimeTier2Multiplier
	}
	if dt == calendar.DayRest {
		m = m.Mul(r.HolidayMultiplier)
	}
	return m
}

// =============================================================================
// LABELS - display only
// =============================================================================

// TierLabel names a tier line for display, e.g. "Regular", "Overtime 125%",
// "Holiday 150%", "Holiday Overtime 187.5%". The percentage shown is the
// effective multiplier.
func TierLabel(t Tier, dt calendar.DayType, multiplier decimal.Decimal) string {
	pct := multiplier.Mul(decimal.NewFromInt(100)).String() + "%"
	switch {
	case dt == calendar.DayRest && t == TierRegular:
		return "Holiday " + pct
	case dt == calendar.DayRest:
		return "Holiday Overtime " + pct
	case t == TierRegular:
		return "Regular"
	default:
		return "Overtime " + pct
	}
}
