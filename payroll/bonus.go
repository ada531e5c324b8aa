package payroll

import (
	"fmt"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/money"
)

// =============================================================================
// BONUS
// =============================================================================

type BonusType string

const (
	// BonusHourly pays AmountPerHour for every worked hour of a qualifying shift.
	BonusHourly BonusType = "HOURLY"

	// BonusOneTime pays AmountFixed once per qualifying period.
	BonusOneTime BonusType = "ONE_TIME"
)

// Bonus is a per-employee supplement with an optional validity window.
// Overlapping bonuses all apply.
type Bonus struct {
	ID            string         `json:"id"`
	Name          string         `json:"name,omitempty"`
	Type          BonusType      `json:"bonusType"`
	AmountPerHour money.Agorot   `json:"amountPerHour,omitempty"`
	AmountFixed   money.Agorot   `json:"amountFixed,omitempty"`
	ValidFrom     *calendar.Date `json:"validFrom,omitempty"`
	ValidTo       *calendar.Date `json:"validTo,omitempty"`
}

// Validate checks the type, the window and the amount for that type.
func (b Bonus) Validate(bounds money.Bounds) error {
	if b.ValidFrom != nil && b.ValidTo != nil && b.ValidTo.Before(*b.ValidFrom) {
		return &RecordError{Record: b.ID, Field: "validTo",
			Err: fmt.Errorf("%w: validTo before validFrom", ErrInvalidBonus)}
	}
	switch b.Type {
	case BonusHourly:
		if err := money.ValidateMinor(b.AmountPerHour, bounds); err != nil {
			return &RecordError{Record: b.ID, Field: "amountPerHour", Err: err}
		}
	case BonusOneTime:
		if err := money.ValidateMinor(b.AmountFixed, bounds); err != nil {
			return &RecordError{Record: b.ID, Field: "amountFixed", Err: err}
		}
	default:
		return &RecordError{Record: b.ID, Field: "bonusType",
			Err: fmt.Errorf("%w: unknown type %q", ErrInvalidBonus, b.Type)}
	}
	return nil
}

// ValidOn reports whether d is inside the bonus window, both ends inclusive.
func (b Bonus) ValidOn(d calendar.Date) bool {
	return calendar.WindowContains(b.ValidFrom, b.ValidTo, d)
}

// Label is the bonus name, or a generic label by type.
func (b Bonus) Label() string {
	if b.Name != "" {
		return b.Name
	}
	if b.Type == BonusOneTime {
		return "One-time bonus"
	}
	return "Hourly bonus"
}

// BonusLine is one bonus applied to one shift or one period.
type BonusLine struct {
	BonusID string       `json:"bonusId"`
	Label   string       `json:"label"`
	Type    BonusType    `json:"bonusType"`
	Minutes int          `json:"minutes,omitempty"`
	Amount  money.Agorot `json:"amount"`
}
