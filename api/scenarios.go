/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	payroll data. Each scenario creates an organization, employees, shifts
	and bonuses that demonstrate specific pay rules.

AVAILABLE SCENARIOS:

	retail-week:     One week of day shifts with overtime, a short Friday
	                 and a Saturday at rest-day rates
	night-security:  Retro night shifts past midnight, a work type with its
	                 own rule, one shift left open
	holiday-bonus:   A global holiday, an hourly bonus and a one-time bonus

HOW SCENARIOS WORK:
 1. Reset database (clear all data, keep the platform time zone)
 2. Create the organization and its work rule
 3. Create employees
 4. Add shifts in the previous month (platform time zone)
 5. Add holidays and bonuses

USAGE VIA API:

	POST /api/scenarios/load
	{"scenarioId": "retail-week"}

	The response names the month to query:
	GET /api/organizations/{id}/payroll?month=YYYY-MM

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers_payroll.go: Payroll endpoints to inspect the result
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/employee"
	"github.com/warp/shift-payroll/money"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/shifttime"
	"github.com/warp/shift-payroll/store"
)

// settingScenario remembers the last loaded scenario.
const settingScenario = "demo_scenario"

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenarioId"`
}

// LoadScenarioResponse tells the caller where to look.
type LoadScenarioResponse struct {
	Status         string `json:"status"`
	Scenario       string `json:"scenario"`
	OrganizationID string `json:"organizationId"`
	Month          string `json:"month"`
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenarioLoader func(ctx context.Context, b *scenarioBuilder) error

var scenarios = []ScenarioDTO{
	{
		ID:          "retail-week",
		Name:        "Retail Week",
		Description: "Day shifts with overtime, a short Friday and a Saturday at rest-day rates",
	},
	{
		ID:          "night-security",
		Name:        "Night Security",
		Description: "Retro night shifts past midnight under a 7-hour work type rule with 175% tier 2",
	},
	{
		ID:          "holiday-bonus",
		Name:        "Holiday & Bonuses",
		Description: "A global holiday plus hourly and one-time bonuses",
	},
}

var scenarioLoaders = map[string]scenarioLoader{
	"retail-week":    loadRetailWeek,
	"night-security": loadNightSecurity,
	"holiday-bonus":  loadHolidayBonus,
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, or null.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	id, err := h.Store.GetSetting(r.Context(), settingScenario)
	if store.IsNotFound(err) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to read scenario", err)
		return
	}
	for _, s := range scenarios {
		if s.ID == id {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: id, Name: id})
}

// LoadScenario resets the database and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeFieldError(w, "scenarioId", "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	loc, ok := h.location(w, r)
	if !ok {
		return
	}
	if err := h.Store.Reset(ctx); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	b := newScenarioBuilder(h.Store, PreviousMonth(h.now(), loc), loc)
	if err := load(ctx, b); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	if err := h.Store.SetSetting(ctx, settingScenario, req.ScenarioID); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to record scenario", err)
		return
	}

	h.Logger.InfoContext(ctx, "scenario loaded", "scenario", req.ScenarioID, "month", b.month())
	writeJSON(w, http.StatusOK, LoadScenarioResponse{
		Status:         "loaded",
		Scenario:       req.ScenarioID,
		OrganizationID: b.orgID,
		Month:          b.month(),
	})
}

// =============================================================================
// BUILDER
// =============================================================================

// scenarioBuilder writes scenario records and stops at the first error.
type scenarioBuilder struct {
	store  *store.Store
	period calendar.Period
	loc    *time.Location
	orgID  string
	seq    int
}

func newScenarioBuilder(s *store.Store, p calendar.Period, loc *time.Location) *scenarioBuilder {
	return &scenarioBuilder{store: s, period: p, loc: loc}
}

func (b *scenarioBuilder) month() string {
	return fmt.Sprintf("%04d-%02d", b.period.From.Year, int(b.period.From.Month))
}

// firstSunday is the first Sunday of the scenario month.
func (b *scenarioBuilder) firstSunday() calendar.Date {
	d := b.period.From
	for d.Weekday() != time.Sunday {
		d = d.AddDays(1)
	}
	return d
}

func (b *scenarioBuilder) organization(ctx context.Context, id, name string, rule payroll.WorkRule) error {
	b.orgID = id
	return b.store.CreateOrganization(ctx, store.Organization{ID: id, Name: name, WorkRule: &rule})
}

func (b *scenarioBuilder) employee(ctx context.Context, id, name, nationalID string, rate money.Agorot) error {
	return b.store.CreateEmployee(ctx, employee.Employee{
		ID:             id,
		OrganizationID: b.orgID,
		Name:           name,
		NationalID:     nationalID,
		HourlyRate:     rate,
	})
}

// shift records a retro shift on d from start to end ("HH:MM").
func (b *scenarioBuilder) shift(ctx context.Context, employeeID string, d calendar.Date, start, end, workType string) error {
	from, to, err := shifttime.ShiftBounds(d.Time(), shifttime.MustParseTime(start), shifttime.MustParseTime(end), b.loc)
	if err != nil {
		return fmt.Errorf("shift %s %s-%s: %w", d, start, end, err)
	}
	b.seq++
	return b.store.CreateShift(ctx, employeeID, payroll.Shift{
		ID:         fmt.Sprintf("%s-shift-%02d", employeeID, b.seq),
		Start:      from,
		End:        &to,
		IsRetro:    true,
		WorkTypeID: workType,
	})
}

// openShift records a clock-in without a clock-out.
func (b *scenarioBuilder) openShift(ctx context.Context, employeeID string, d calendar.Date, start string) error {
	b.seq++
	return b.store.CreateShift(ctx, employeeID, payroll.Shift{
		ID:    fmt.Sprintf("%s-shift-%02d", employeeID, b.seq),
		Start: shifttime.MustParseTime(start).On(d.Time(), b.loc),
	})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadRetailWeek(ctx context.Context, b *scenarioBuilder) error {
	if err := b.organization(ctx, "org-retail", "Corner Market", payroll.DefaultWorkRule()); err != nil {
		return err
	}
	if err := b.employee(ctx, "emp-dana", "Dana Levi", "123456782", 4200); err != nil {
		return err
	}
	if err := b.employee(ctx, "emp-yossi", "Yossi Cohen", "000000018", 3550); err != nil {
		return err
	}

	sun := b.firstSunday()
	week := []struct {
		emp        string
		day        int
		start, end string
	}{
		{"emp-dana", 0, "08:00", "16:00"},
		{"emp-dana", 1, "08:00", "18:30"}, // 2.5h overtime
		{"emp-dana", 2, "07:00", "19:00"}, // into tier 2
		{"emp-dana", 5, "08:00", "16:00"}, // Friday, short day
		{"emp-dana", 6, "09:00", "18:00"}, // Saturday, rest day
		{"emp-yossi", 3, "12:00", "20:00"},
		{"emp-yossi", 4, "12:00", "21:45"},
	}
	for _, s := range week {
		if err := b.shift(ctx, s.emp, sun.AddDays(s.day), s.start, s.end, ""); err != nil {
			return err
		}
	}
	return nil
}

func loadNightSecurity(ctx context.Context, b *scenarioBuilder) error {
	if err := b.organization(ctx, "org-guard", "Night Watch", payroll.DefaultWorkRule()); err != nil {
		return err
	}
	nightRule := payroll.DefaultWorkRule()
	nightRule.StandardDailyMinutes = 7 * 60
	nightRule.OvertimeTier2Multiplier = decimal.RequireFromString("1.75")
	if err := b.store.SaveWorkType(ctx, store.WorkType{ID: "night", OrganizationID: b.orgID, Name: "Night shift", Rule: &nightRule}); err != nil {
		return err
	}
	// Inherits the organization rule.
	if err := b.store.SaveWorkType(ctx, store.WorkType{ID: "patrol", OrganizationID: b.orgID, Name: "Patrol"}); err != nil {
		return err
	}
	if err := b.employee(ctx, "emp-avi", "Avi Mizrahi", "123456782", 4500); err != nil {
		return err
	}

	sun := b.firstSunday()
	for day := 0; day < 4; day++ {
		if err := b.shift(ctx, "emp-avi", sun.AddDays(day), "22:00", "07:00", "night"); err != nil {
			return err
		}
	}
	if err := b.shift(ctx, "emp-avi", sun.AddDays(4), "14:00", "23:00", "patrol"); err != nil {
		return err
	}
	return b.openShift(ctx, "emp-avi", sun.AddDays(7), "22:00")
}

func loadHolidayBonus(ctx context.Context, b *scenarioBuilder) error {
	if err := b.organization(ctx, "org-clinic", "Harbor Clinic", payroll.DefaultWorkRule()); err != nil {
		return err
	}
	if err := b.employee(ctx, "emp-noa", "Noa Shapiro", "000000018", 5000); err != nil {
		return err
	}

	sun := b.firstSunday()
	holiday := sun.AddDays(2)
	if err := b.store.SaveHoliday(ctx, store.Holiday{
		ID:      "hol-demo",
		Date:    holiday,
		DayInfo: calendar.DayInfo{Name: "Demo Holiday", IsHoliday: true, IsRestDay: true},
	}); err != nil {
		return err
	}

	for day := 0; day < 5; day++ {
		if err := b.shift(ctx, "emp-noa", sun.AddDays(day), "08:00", "17:00", ""); err != nil {
			return err
		}
	}

	from, to := b.period.From, b.period.To
	bonuses := []payroll.Bonus{
		{ID: "bonus-night-cover", Name: "Cover premium", Type: payroll.BonusHourly, AmountPerHour: 500, ValidFrom: &from, ValidTo: &to},
		{ID: "bonus-signing", Name: "Signing bonus", Type: payroll.BonusOneTime, AmountFixed: 50000, ValidFrom: &from, ValidTo: &to},
	}
	for _, bonus := range bonuses {
		if err := b.store.CreateBonus(ctx, "emp-noa", bonus); err != nil {
			return err
		}
	}
	return nil
}
