package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warp/shift-payroll/calendar"
)

// =============================================================================
// SETTINGS
// =============================================================================

// SettingPlatformTimezone is the IANA zone used to date shifts.
const SettingPlatformTimezone = "platform_timezone"

// GetSetting returns a setting value or ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.queryRow(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", notFound("setting", key, err)
	}
	return value, nil
}

// SetSetting inserts or replaces a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.exec(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, now())
}

// SetPlatformTimezone validates name as an IANA zone and stores it.
func (s *Store) SetPlatformTimezone(ctx context.Context, name string) error {
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("invalid time zone %q: %w", name, err)
	}
	return s.SetSetting(ctx, SettingPlatformTimezone, name)
}

// TimezoneLoader reads the platform zone from settings, falling back to
// fallback when none is stored. Use it with calendar.NewZoneCache.
func (s *Store) TimezoneLoader(fallback string) calendar.ZoneLoader {
	return func(ctx context.Context) (*time.Location, error) {
		name, err := s.GetSetting(ctx, SettingPlatformTimezone)
		if errors.Is(err, ErrNotFound) {
			name = fallback
		} else if err != nil {
			return nil, err
		}
		return time.LoadLocation(name)
	}
}

// monthClosedKey is the settings key marking a closed payroll period.
func monthClosedKey(orgID string, p calendar.Period) string {
	return "period_closed:" + orgID + ":" + p.From.String() + ":" + p.To.String()
}

// IsPeriodClosed reports whether MarkPeriodClosed ran for this period.
func (s *Store) IsPeriodClosed(ctx context.Context, orgID string, p calendar.Period) (bool, error) {
	_, err := s.GetSetting(ctx, monthClosedKey(orgID, p))
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkPeriodClosed records that a period's payroll was finalized.
func (s *Store) MarkPeriodClosed(ctx context.Context, orgID string, p calendar.Period, at time.Time) error {
	return s.SetSetting(ctx, monthClosedKey(orgID, p), formatTime(at))
}
