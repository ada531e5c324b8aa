package calendar

// =============================================================================
// DAY INFO - what the holiday calendar knows about a date
// =============================================================================

// DayInfo carries the holiday flags for one date.
type DayInfo struct {
	Name       string `json:"name,omitempty"`
	IsHoliday  bool   `json:"isHoliday"`
	IsRestDay  bool   `json:"isRestDay"`
	IsShortDay bool   `json:"isShortDay"`
}

// Merge ORs the flags of two entries for the same date. The first non-empty
// name wins.
func (i DayInfo) Merge(o DayInfo) DayInfo {
	name := i.Name
	if name == "" {
		name = o.Name
	}
	return DayInfo{
		Name:       name,
		IsHoliday:  i.IsHoliday || o.IsHoliday,
		IsRestDay:  i.IsRestDay || o.IsRestDay,
		IsShortDay: i.IsShortDay || o.IsShortDay,
	}
}

// HolidayMap holds DayInfo by date. Missing dates are ordinary weekdays.
type HolidayMap map[Date]DayInfo

// Lookup is safe on a nil map.
func (m HolidayMap) Lookup(d Date) DayInfo {
	if m == nil {
		return DayInfo{}
	}
	return m[d]
}

// =============================================================================
// DAY TYPE
// =============================================================================

// DayType is the pay classification of a calendar day.
type DayType int

const (
	DayRegular DayType = iota
	DayShort
	DayRest
)

func (t DayType) String() string {
	switch t {
	case DayShort:
		return "short"
	case DayRest:
		return "rest"
	default:
		return "regular"
	}
}

// Classify maps holiday flags to a DayType. A rest day wins over a short day.
func Classify(info DayInfo) DayType {
	switch {
	case info.IsHoliday || info.IsRestDay:
		return DayRest
	case info.IsShortDay:
		return DayShort
	default:
		return DayRegular
	}
}

func (t DayType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *DayType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "short":
		*t = DayShort
	case "rest":
		*t = DayRest
	default:
		*t = DayRegular
	}
	return nil
}
