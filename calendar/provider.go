package calendar

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// PROVIDER - holiday calendar lookup
// =============================================================================

// Provider returns the holiday flags for every flagged date in a period.
// Organization-specific entries take precedence over global ones. Dates not
// present in the result are ordinary weekdays.
type Provider interface {
	Days(ctx context.Context, orgID string, p Period) (HolidayMap, error)
}

// StaticProvider is an in-memory Provider for tests, the CLI and small
// deployments. An empty orgID holds global entries.
type StaticProvider struct {
	mu    sync.RWMutex
	byOrg map[string]HolidayMap
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{byOrg: make(map[string]HolidayMap)}
}

// Set records info for a date. orgID "" applies to every organization.
func (s *StaticProvider) Set(orgID string, d Date, info DayInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byOrg[orgID]
	if !ok {
		m = make(HolidayMap)
		s.byOrg[orgID] = m
	}
	m[d] = info
}

// SetAll records a whole map under orgID.
func (s *StaticProvider) SetAll(orgID string, days HolidayMap) {
	for d, info := range days {
		s.Set(orgID, d, info)
	}
}

func (s *StaticProvider) Days(_ context.Context, orgID string, p Period) (HolidayMap, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(HolidayMap)
	for d, info := range s.byOrg[""] {
		if p.Contains(d) {
			out[d] = info
		}
	}
	if orgID != "" {
		for d, info := range s.byOrg[orgID] {
			if p.Contains(d) {
				out[d] = info
			}
		}
	}
	return out, nil
}

// SabbathProvider marks every Saturday as a rest day and every Friday as a
// short day on top of what Next returns. Next may be nil.
type SabbathProvider struct {
	Next Provider
}

func (s SabbathProvider) Days(ctx context.Context, orgID string, p Period) (HolidayMap, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := make(HolidayMap)
	if s.Next != nil {
		days, err := s.Next.Days(ctx, orgID, p)
		if err != nil {
			return nil, err
		}
		for d, info := range days {
			out[d] = info
		}
	}
	for _, d := range p.Days() {
		switch d.Weekday() {
		case time.Saturday:
			out[d] = out[d].Merge(DayInfo{Name: "Sabbath", IsRestDay: true})
		case time.Friday:
			info := out[d]
			if !info.IsHoliday && !info.IsRestDay {
				out[d] = info.Merge(DayInfo{IsShortDay: true})
			}
		}
	}
	return out, nil
}
