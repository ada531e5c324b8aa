package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WORK RULE - organization pay configuration
// =============================================================================

// WorkRule is an organization's overtime configuration. The engine never
// reads a global default; callers pass the rule explicitly.
type WorkRule struct {
	// Minutes paid at the base rate on an ordinary day.
	StandardDailyMinutes int `json:"standardDailyMinutes"`

	// Replaces StandardDailyMinutes on short days (e.g. holiday eves).
	ShortDayStandardMinutes int `json:"shortDayStandardMinutes"`

	// Length of the first overtime band. Everything beyond is tier 2.
	OvertimeTier1Minutes int `json:"overtimeTier1Minutes"`

	OvertimeTier1Multiplier decimal.Decimal `json:"overtimeTier1Multiplier"`
	OvertimeTier2Multiplier decimal.Decimal `json:"overtimeTier2Multiplier"`

	// Applied on rest days on top of the tier multiplier.
	HolidayMultiplier decimal.Decimal `json:"holidayMultiplier"`
}

// DefaultWorkRule is the documented fallback for organizations that adopt
// the statutory defaults: 8h standard day, 7h short day, two hours at 125%,
// then 150%, and 150% on rest days.
func DefaultWorkRule() WorkRule {
	return WorkRule{
		StandardDailyMinutes:    8 * 60,
		ShortDayStandardMinutes: 7 * 60,
		OvertimeTier1Minutes:    2 * 60,
		OvertimeTier1Multiplier: decimal.RequireFromString("1.25"),
		OvertimeTier2Multiplier: decimal.RequireFromString("1.5"),
		HolidayMultiplier:       decimal.RequireFromString("1.5"),
	}
}

// Validate rejects negative thresholds and multipliers below 1.
func (r WorkRule) Validate() error {
	switch {
	case r.StandardDailyMinutes < 0:
		return fmt.Errorf("%w: standardDailyMinutes is negative", ErrInvalidWorkRule)
	case r.ShortDayStandardMinutes < 0:
		return fmt.Errorf("%w: shortDayStandardMinutes is negative", ErrInvalidWorkRule)
	case r.OvertimeTier1Minutes < 0:
		return fmt.Errorf("%w: overtimeTier1Minutes is negative", ErrInvalidWorkRule)
	case r.OvertimeTier1Multiplier.LessThan(decimal.NewFromInt(1)):
		return fmt.Errorf("%w: overtimeTier1Multiplier below 1", ErrInvalidWorkRule)
	case r.OvertimeTier2Multiplier.LessThan(decimal.NewFromInt(1)):
		return fmt.Errorf("%w: overtimeTier2Multiplier below 1", ErrInvalidWorkRule)
	case r.HolidayMultiplier.LessThan(decimal.NewFromInt(1)):
		return fmt.Errorf("%w: holidayMultiplier below 1", ErrInvalidWorkRule)
	}
	return nil
}

// =============================================================================
// RULE SET - organization rule plus per work type overrides
// =============================================================================

// RuleSet resolves the rule that applies to a shift's work type.
//
// WorkTypes lists every work type the organization recognizes. A nil entry
// inherits the organization rule; a work type absent from the map has no
// rule at all and its shifts are excluded from payroll.
type RuleSet struct {
	Organization *WorkRule
	WorkTypes    map[string]*WorkRule
}

// Validate checks the organization rule and every override.
func (rs RuleSet) Validate() error {
	if rs.Organization == nil {
		return ErrMissingWorkRule
	}
	if err := rs.Organization.Validate(); err != nil {
		return err
	}
	for id, r := range rs.WorkTypes {
		if r == nil {
			continue
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("work type %s: %w", id, err)
		}
	}
	return nil
}

// Resolve returns the rule for workTypeID. An empty id means the
// organization rule.
func (rs RuleSet) Resolve(workTypeID string) (WorkRule, error) {
	if rs.Organization == nil {
		return WorkRule{}, ErrMissingWorkRule
	}
	if workTypeID == "" {
		return *rs.Organization, nil
	}
	r, ok := rs.WorkTypes[workTypeID]
	if !ok {
		return WorkRule{}, fmt.Errorf("%w %q", ErrUnknownWorkType, workTypeID)
	}
	if r == nil {
		return *rs.Organization, nil
	}
	return *r, nil
}
