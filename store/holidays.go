package store

import (
	"context"

	"github.com/warp/shift-payroll/calendar"
)

// =============================================================================
// HOLIDAY CALENDAR (calendar.Provider)
// =============================================================================

// Holiday is one flagged date. OrganizationID "" is a global entry shared
// by every organization.
type Holiday struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organizationId"`
	Date           calendar.Date `json:"date"`
	calendar.DayInfo
}

// SaveHoliday inserts a holiday or replaces the flags already recorded for
// the same organization and date.
func (s *Store) SaveHoliday(ctx context.Context, h Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.exec(ctx, `
		INSERT INTO holidays (id, organization_id, holiday_date, name, is_holiday, is_rest_day, is_short_day, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(organization_id, holiday_date) DO UPDATE SET
			name = excluded.name,
			is_holiday = excluded.is_holiday,
			is_rest_day = excluded.is_rest_day,
			is_short_day = excluded.is_short_day
	`, h.ID, h.OrganizationID, h.Date.String(), h.Name, h.IsHoliday, h.IsRestDay, h.IsShortDay, now())
}

// ListHolidays returns the organization's entries plus global entries in p,
// ordered by date with global entries first.
func (s *Store) ListHolidays(ctx context.Context, orgID string, p calendar.Period) ([]Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.query(ctx, `
		SELECT id, organization_id, holiday_date, name, is_holiday, is_rest_day, is_short_day
		FROM holidays
		WHERE (organization_id = ? OR organization_id = '')
		  AND holiday_date >= ? AND holiday_date <= ?
		ORDER BY holiday_date ASC, organization_id ASC
	`, orgID, p.From.String(), p.To.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Holiday{}
	for rows.Next() {
		var h Holiday
		var date string
		if err := rows.Scan(&h.ID, &h.OrganizationID, &date, &h.Name,
			&h.IsHoliday, &h.IsRestDay, &h.IsShortDay); err != nil {
			return nil, err
		}
		if h.Date, err = calendar.ParseDate(date); err != nil {
			return nil, err
		}
		list = append(list, h)
	}
	return list, rows.Err()
}

// Days implements calendar.Provider. Organization rows override global rows
// for the same date.
func (s *Store) Days(ctx context.Context, orgID string, p calendar.Period) (calendar.HolidayMap, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	list, err := s.ListHolidays(ctx, orgID, p)
	if err != nil {
		return nil, err
	}
	out := make(calendar.HolidayMap, len(list))
	for _, h := range list {
		// Global rows sort first, so the organization row lands last.
		out[h.Date] = h.DayInfo
	}
	return out, nil
}
