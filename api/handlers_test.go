/*
handlers_test.go - HTTP tests for the API handlers

Tests for:
- Organization, employee, shift and bonus creation
- Employee payroll, finalization and one-time bonus deduplication
- Workbook and payslip exports
- Organization batch payroll
- Platform time zone settings
- Stateless calculator endpoints
- Error mapping (400 field errors, 404, 422)
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-payroll/api"
	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/money"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type env struct {
	store   *store.Store
	handler *api.Handler
	router  *chi.Mux
}

// newEnv builds a router over an in-memory store. The clock is fixed at
// 2025-02-03 so "last month" is January 2025.
func newEnv(t *testing.T) *env {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	zone := calendar.NewZoneCache(s.TimezoneLoader("UTC"), time.Hour)
	zone.Now = func() time.Time { return time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC) }

	h := api.NewHandler(s, zone, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return &env{store: s, handler: h, router: api.NewRouter(h, nil)}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// seed creates org-1 with the default rule, employee emp-1 at 40 ₪/h, a
// 10.5 hour shift on Monday 2025-01-06 and a 100 ₪ January one-time bonus.
func (e *env) seed(t *testing.T) {
	t.Helper()
	rule := payroll.DefaultWorkRule()

	rec := e.do(t, http.MethodPost, "/api/organizations", api.OrganizationRequest{ID: "org-1", Name: "Acme", WorkRule: &rule})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{
		ID: "emp-1", OrganizationID: "org-1", Name: "Dana", NationalID: "123456782", HourlyRate: 40,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/employees/emp-1/shifts", api.CreateShiftRequest{
		ID: "s-1", Date: "2025-01-06", Start: "08:00", End: "18:30",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	from, to := calendar.MustParseDate("2025-01-01"), calendar.MustParseDate("2025-01-31")
	rec = e.do(t, http.MethodPost, "/api/employees/emp-1/bonuses", api.CreateBonusRequest{
		ID: "b-1", Name: "Welcome", Type: payroll.BonusOneTime, AmountFixed: 100, ValidFrom: &from, ValidTo: &to,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// =============================================================================
// RESOURCES
// =============================================================================

func TestCreateEmployee_ReturnsAgorotAndDisplay(t *testing.T) {
	// GIVEN: An organization and an employee created at 40.5 ₪/h
	e := newEnv(t)
	e.seed(t)
	rec := e.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{
		ID: "emp-2", OrganizationID: "org-1", Name: "Noa", NationalID: "000000018", HourlyRate: 40.5,
	})

	// THEN: The rate is stored in agorot
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decodeAs[api.EmployeeDTO](t, rec)
	assert.Equal(t, money.Agorot(4050), dto.HourlyRateAgorot)
	assert.Equal(t, 40.5, dto.HourlyRate)

	// AND: The employee is listed under the organization
	rec = e.do(t, http.MethodGet, "/api/employees?organizationId=org-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[[]api.EmployeeDTO](t, rec), 2)
}

func TestCreateEmployee_FieldErrors(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	tests := []struct {
		name  string
		req   api.CreateEmployeeRequest
		field string
	}{
		{"unknown organization", api.CreateEmployeeRequest{OrganizationID: "nope", Name: "X", NationalID: "123456782", HourlyRate: 40}, "organizationId"},
		{"negative rate", api.CreateEmployeeRequest{OrganizationID: "org-1", Name: "X", NationalID: "123456782", HourlyRate: -1}, "hourlyRate"},
		{"rate above maximum", api.CreateEmployeeRequest{OrganizationID: "org-1", Name: "X", NationalID: "123456782", HourlyRate: 100001}, "hourlyRate"},
		{"bad checksum", api.CreateEmployeeRequest{OrganizationID: "org-1", Name: "X", NationalID: "123456789", HourlyRate: 40}, "nationalId"},
		{"non-digit national id", api.CreateEmployeeRequest{OrganizationID: "org-1", Name: "X", NationalID: "12345678a", HourlyRate: 40}, "nationalId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/api/employees", tt.req)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.field, decodeAs[api.ErrorResponse](t, rec).Field)
		})
	}
}

func TestGetEmployee_NotFound(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/api/employees/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/employees/ghost/payroll", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateShift_RetroWrapsPastMidnight(t *testing.T) {
	// GIVEN: A retro night shift 22:00-06:00
	e := newEnv(t)
	e.seed(t)
	rec := e.do(t, http.MethodPost, "/api/employees/emp-1/shifts", api.CreateShiftRequest{
		ID: "night", Date: "2025-01-07", Start: "22:00", End: "06:00",
	})

	// THEN: It lasts 8 hours and is dated on its start day
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decodeAs[api.ShiftDTO](t, rec)
	require.NotNil(t, dto.Minutes)
	assert.Equal(t, 480, *dto.Minutes)
	assert.Equal(t, calendar.MustParseDate("2025-01-07"), dto.Date)
	assert.True(t, dto.IsRetro)
}

func TestCreateShift_Invalid(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	start := time.Date(2025, 1, 8, 8, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)
	tooLong := start.Add(17 * time.Hour)

	tests := []struct {
		name  string
		req   api.CreateShiftRequest
		field string
	}{
		{"same wall-clock start and end", api.CreateShiftRequest{Date: "2025-01-08", Start: "08:00", End: "08:00"}, "end"},
		{"bad clock", api.CreateShiftRequest{Date: "2025-01-08", Start: "8am", End: "16:00"}, "start"},
		{"bad date", api.CreateShiftRequest{Date: "08/01/2025", Start: "08:00", End: "16:00"}, "date"},
		{"end before start", api.CreateShiftRequest{StartTime: &start, EndTime: &before}, "endTime"},
		{"longer than 16 hours", api.CreateShiftRequest{StartTime: &start, EndTime: &tooLong}, "endTime"},
		{"missing start", api.CreateShiftRequest{}, "startTime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/api/employees/emp-1/shifts", tt.req)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.field, decodeAs[api.ErrorResponse](t, rec).Field)
		})
	}
}

func TestUpdateOrganization_KeepsRuleWhenOmitted(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	rec := e.do(t, http.MethodPut, "/api/organizations/org-1", api.OrganizationRequest{Name: "Acme Ltd"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	org := decodeAs[store.Organization](t, rec)
	assert.Equal(t, "Acme Ltd", org.Name)
	require.NotNil(t, org.WorkRule)
	assert.Equal(t, 480, org.WorkRule.StandardDailyMinutes)
}

func TestCreate_DuplicateIDsConflict(t *testing.T) {
	// GIVEN: A seeded org-1/emp-1 and a second employee
	e := newEnv(t)
	e.seed(t)
	rec := e.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{
		ID: "emp-2", OrganizationID: "org-1", Name: "Yossi", NationalID: "000000018", HourlyRate: 35,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tests := []struct {
		name string
		path string
		body any
	}{
		{"organization", "/api/organizations", api.OrganizationRequest{ID: "org-1", Name: "Acme"}},
		{"employee", "/api/employees", api.CreateEmployeeRequest{
			ID: "emp-1", OrganizationID: "org-1", Name: "Other", NationalID: "000000018", HourlyRate: 30}},
		{"shift of another employee", "/api/employees/emp-2/shifts", api.CreateShiftRequest{
			ID: "s-1", Date: "2025-01-06", Start: "08:00", End: "09:00"}},
		{"bonus of another employee", "/api/employees/emp-2/bonuses", api.CreateBonusRequest{
			ID: "b-1", Type: payroll.BonusOneTime, AmountFixed: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// WHEN: A create reuses an existing ID
			rec := e.do(t, http.MethodPost, tt.path, tt.body)

			// THEN: It is rejected
			assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
		})
	}

	// AND: emp-1's January is unchanged and its organization keeps the rule
	rec = e.do(t, http.MethodGet, "/api/employees/emp-1/payroll?month=2025-01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decodeAs[api.PayrollResponse](t, rec).Summary
	assert.Equal(t, 630, summary.Totals.WorkedMinutes)
	assert.Equal(t, money.Agorot(55000), summary.Totals.TotalPay)

	rec = e.do(t, http.MethodGet, "/api/employees/emp-2/shifts?month=2025-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeAs[[]api.ShiftDTO](t, rec))
}

func TestPutWorkType_OtherOrganizationsIDConflicts(t *testing.T) {
	e := newEnv(t)
	e.seed(t)
	rec := e.do(t, http.MethodPost, "/api/organizations", api.OrganizationRequest{ID: "org-2", Name: "Other"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodPut, "/api/organizations/org-1/work-types/night", api.WorkTypeRequest{Name: "Night"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPut, "/api/organizations/org-2/work-types/night", api.WorkTypeRequest{Name: "Night"})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

// =============================================================================
// PAYROLL
// =============================================================================

func TestGetPayroll_TotalsInAgorot(t *testing.T) {
	// GIVEN: 630 minutes on a regular day at 40 ₪/h and a 100 ₪ bonus
	e := newEnv(t)
	e.seed(t)

	// WHEN: January payroll is requested
	rec := e.do(t, http.MethodGet, "/api/employees/emp-1/payroll?month=2025-01", nil)

	// THEN: 8h regular, 2h at 125%, 30m at 150%, plus the bonus
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeAs[api.PayrollResponse](t, rec)
	totals := resp.Summary.Totals
	assert.Equal(t, 630, totals.WorkedMinutes)
	assert.Equal(t, money.Agorot(32000), totals.RegularPay)
	assert.Equal(t, money.Agorot(10000), totals.OvertimeTier1Pay)
	assert.Equal(t, money.Agorot(3000), totals.OvertimeTier2Pay)
	assert.Equal(t, money.Agorot(10000), totals.BonusPay)
	assert.Equal(t, money.Agorot(55000), totals.TotalPay)
	assert.Equal(t, "10:30", resp.Display.Worked)
	assert.Equal(t, "UTC", resp.Timezone)
}

func TestGetPayroll_SabbathIsRestDay(t *testing.T) {
	// GIVEN: A 9 hour shift on Saturday 2025-01-11
	e := newEnv(t)
	e.seed(t)
	rec := e.do(t, http.MethodPost, "/api/employees/emp-1/shifts", api.CreateShiftRequest{
		ID: "sat", Date: "2025-01-11", Start: "08:00", End: "17:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: Payroll covers only that day
	rec = e.do(t, http.MethodGet, "/api/employees/emp-1/payroll?from=2025-01-11&to=2025-01-11", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: Regular hours at 150%, the overtime hour at 187.5%
	summary := decodeAs[api.PayrollResponse](t, rec).Summary
	require.Len(t, summary.Shifts, 1)
	assert.Equal(t, calendar.DayRest, summary.Shifts[0].DayType)
	assert.Equal(t, money.Agorot(48000), summary.Shifts[0].RegularPay)
	assert.Equal(t, money.Agorot(7500), summary.Shifts[0].OvertimeTier1Pay)
}

func TestGetPayroll_InvalidPeriod(t *testing.T) {
	e := newEnv(t)
	e.seed(t)
	rec := e.do(t, http.MethodGet, "/api/employees/emp-1/payroll?from=2025-01-31&to=2025-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/employees/emp-1/payroll?month=January", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPayroll_MissingWorkRuleIs422(t *testing.T) {
	// GIVEN: An organization without a work rule
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/api/organizations", api.OrganizationRequest{ID: "bare", Name: "Bare"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = e.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{
		ID: "emp-x", OrganizationID: "bare", Name: "X", NationalID: "123456782", HourlyRate: 40,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: Payroll is requested
	rec = e.do(t, http.MethodGet, "/api/employees/emp-x/payroll?month=2025-01", nil)

	// THEN: The configuration problem is reported as unprocessable
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestFinalizePayroll_FinalizedPeriodStillShowsBonus(t *testing.T) {
	// GIVEN: A seeded January with a one-time bonus
	e := newEnv(t)
	e.seed(t)

	// WHEN: January is finalized
	rec := e.do(t, http.MethodPost, "/api/employees/emp-1/payroll/finalize?month=2025-01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, money.Agorot(10000), decodeAs[api.PayrollResponse](t, rec).Summary.Totals.BonusPay)

	// THEN: Recalculating January reports the bonus as paid, not dropped
	rec = e.do(t, http.MethodGet, "/api/employees/emp-1/payroll?month=2025-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeAs[api.PayrollResponse](t, rec).Summary
	assert.Equal(t, money.Agorot(10000), summary.Totals.BonusPay)
	assert.Equal(t, money.Agorot(55000), summary.Totals.TotalPay)
	assert.Empty(t, summary.SkippedOneTimeBonuses)
	require.Len(t, summary.Bonuses, 1)
	assert.True(t, summary.Bonuses[0].Paid)

	// AND: Finalizing again records nothing new
	rec = e.do(t, http.MethodPost, "/api/employees/emp-1/payroll/finalize?month=2025-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payouts, err := e.store.BonusPayouts(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Len(t, payouts, 1)
}

func TestFinalizePayroll_OverlappingPeriodDoesNotPayAgain(t *testing.T) {
	// GIVEN: January finalized with the one-time bonus
	e := newEnv(t)
	e.seed(t)
	rec := e.do(t, http.MethodPost, "/api/employees/emp-1/payroll/finalize?month=2025-01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// WHEN: The first half of January is calculated
	rec = e.do(t, http.MethodGet, "/api/employees/emp-1/payroll?from=2025-01-01&to=2025-01-15", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: The shift is paid but the bonus is skipped
	summary := decodeAs[api.PayrollResponse](t, rec).Summary
	assert.Equal(t, money.Agorot(0), summary.Totals.BonusPay)
	assert.Equal(t, money.Agorot(45000), summary.Totals.TotalPay)
	assert.Equal(t, []string{"b-1"}, summary.SkippedOneTimeBonuses)
}

func TestExportPayroll_Formats(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	tests := []struct {
		path        string
		contentType string
		magic       string
	}{
		{"/api/employees/emp-1/payroll/export.xlsx?month=2025-01", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "PK"},
		{"/api/employees/emp-1/payroll/payslip.pdf?month=2025-01", "application/pdf", "%PDF-"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := e.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), "emp-1-2025-01-01-2025-01-31")
			assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte(tt.magic)))
		})
	}
}

func TestOrganizationPayroll_Batch(t *testing.T) {
	// GIVEN: Two employees, one of whom worked
	e := newEnv(t)
	e.seed(t)
	rec := e.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{
		ID: "emp-2", OrganizationID: "org-1", Name: "Noa", NationalID: "000000018", HourlyRate: 50,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: The organization payroll is run
	rec = e.do(t, http.MethodGet, "/api/organizations/org-1/payroll?month=2025-01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: Each employee has totals and the grand total sums them
	resp := decodeAs[api.BatchResponse](t, rec)
	require.Len(t, resp.Employees, 2)
	assert.Zero(t, resp.Failed)
	assert.Equal(t, money.Agorot(55000), resp.TotalPay)
	for _, entry := range resp.Employees {
		require.NotNil(t, entry.Totals, entry.EmployeeID)
	}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestHolidays_OrgOverridesComputedDays(t *testing.T) {
	// GIVEN: A holiday on Monday 2025-01-06
	e := newEnv(t)
	e.seed(t)
	rec := e.do(t, http.MethodPost, "/api/organizations/org-1/holidays", api.HolidayRequest{
		Date: "2025-01-06", Name: "Founders Day", IsHoliday: true, IsRestDay: true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// WHEN: Holidays for that week are listed
	rec = e.do(t, http.MethodGet, "/api/organizations/org-1/holidays?from=2025-01-06&to=2025-01-11", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Days map[string]calendar.DayInfo `json:"days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	// THEN: The stored holiday and the Friday/Saturday defaults are present
	assert.True(t, body.Days["2025-01-06"].IsRestDay)
	assert.True(t, body.Days["2025-01-10"].IsShortDay)
	assert.True(t, body.Days["2025-01-11"].IsRestDay)

	// AND: The seeded Monday shift is now paid as a rest day
	rec = e.do(t, http.MethodGet, "/api/employees/emp-1/payroll?from=2025-01-06&to=2025-01-06", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeAs[api.PayrollResponse](t, rec).Summary
	require.Len(t, summary.Shifts, 1)
	assert.Equal(t, calendar.DayRest, summary.Shifts[0].DayType)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestTimezone_PutInvalidatesCache(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/settings/timezone", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "UTC", decodeAs[api.TimezoneDTO](t, rec).Timezone)

	rec = e.do(t, http.MethodPut, "/api/settings/timezone", api.TimezoneDTO{Timezone: "Asia/Jerusalem"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/settings/timezone", nil)
	assert.Equal(t, "Asia/Jerusalem", decodeAs[api.TimezoneDTO](t, rec).Timezone)

	rec = e.do(t, http.MethodPut, "/api/settings/timezone", api.TimezoneDTO{Timezone: "Mars/Olympus"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "timezone", decodeAs[api.ErrorResponse](t, rec).Field)
}

func TestTimezone_ShiftsDatedInPlatformZone(t *testing.T) {
	// GIVEN: The platform zone is Jerusalem (UTC+2 in January)
	e := newEnv(t)
	e.seed(t)
	rec := e.do(t, http.MethodPut, "/api/settings/timezone", api.TimezoneDTO{Timezone: "Asia/Jerusalem"})
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN: A shift starts at 22:30 UTC on Jan 7
	start := time.Date(2025, 1, 7, 22, 30, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)
	rec = e.do(t, http.MethodPost, "/api/employees/emp-1/shifts", api.CreateShiftRequest{ID: "late", StartTime: &start, EndTime: &end})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN: It belongs to Jan 8 local time
	assert.Equal(t, calendar.MustParseDate("2025-01-08"), decodeAs[api.ShiftDTO](t, rec).Date)
}

// =============================================================================
// CALCULATOR
// =============================================================================

func TestCalcShift(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name  string
		req   api.CalcShiftRequest
		total money.Agorot
	}{
		{"regular day", api.CalcShiftRequest{Date: "2025-01-06", Start: "08:00", End: "18:30", HourlyRate: 40}, 45000},
		{"rest day", api.CalcShiftRequest{Date: "2025-01-06", Start: "08:00", End: "17:00", HourlyRate: 40, Day: calendar.DayInfo{IsRestDay: true}}, 55500},
		{"short day", api.CalcShiftRequest{Date: "2025-01-06", Start: "08:00", End: "16:00", HourlyRate: 40, Day: calendar.DayInfo{IsShortDay: true}}, 33000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/api/calc/shift", tt.req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.total, decodeAs[payroll.ShiftPay](t, rec).TotalPay)
		})
	}
}

func TestCalcShift_Errors(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/calc/shift", api.CalcShiftRequest{Date: "2025-01-06", Start: "08:00", End: "16:00", HourlyRate: -5})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "hourlyRate", decodeAs[api.ErrorResponse](t, rec).Field)

	rec = e.do(t, http.MethodPost, "/api/calc/shift", map[string]any{"hourlyRate": 40, "surprise": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/calc/shift", api.CalcShiftRequest{
		Date: "2025-01-06", Start: "08:00", End: "16:00", HourlyRate: 40,
		Bonuses: []api.CreateBonusRequest{{Type: payroll.BonusHourly, AmountPerHour: -5}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bonuses[0].amountPerHour", decodeAs[api.ErrorResponse](t, rec).Field)
}

func TestCalcShift_BonusAmountsAreShekels(t *testing.T) {
	// GIVEN: An 8 hour regular shift at 40 ₪/h with a 5 ₪/h bonus
	e := newEnv(t)
	req := api.CalcShiftRequest{
		Date: "2025-01-06", Start: "08:00", End: "16:00", HourlyRate: 40,
		Bonuses: []api.CreateBonusRequest{{Name: "Cover", Type: payroll.BonusHourly, AmountPerHour: 5}},
	}

	// WHEN
	rec := e.do(t, http.MethodPost, "/api/calc/shift", req)

	// THEN: The bonus is 8 x 5 ₪, priced the same way as a stored bonus
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pay := decodeAs[payroll.ShiftPay](t, rec)
	assert.Equal(t, money.Agorot(4000), pay.BonusPay)
	assert.Equal(t, money.Agorot(32000+4000), pay.TotalPay)
}

func TestCalcDuration(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/calc/duration?start=22:00&end=06:30", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decodeAs[api.DurationDTO](t, rec)
	assert.Equal(t, 510, dto.Minutes)
	assert.Equal(t, "8:30", dto.Formatted)

	rec = e.do(t, http.MethodGet, "/api/calc/duration?start=09:00&end=09:00", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalcAmount(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/calc/amount?shekels=12.345", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, money.Agorot(1235), decodeAs[api.AmountDTO](t, rec).Agorot)

	rec = e.do(t, http.MethodGet, "/api/calc/amount?shekels=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalcNationalID(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/calc/national-id?id=123456782", nil)
	assert.True(t, decodeAs[api.NationalIDDTO](t, rec).Valid)

	rec = e.do(t, http.MethodGet, "/api/calc/national-id?id=123456789", nil)
	dto := decodeAs[api.NationalIDDTO](t, rec)
	assert.False(t, dto.Valid)
	assert.NotEmpty(t, dto.Error)
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sqlite3")
}

// =============================================================================
// SCHEDULER
// =============================================================================

func TestMonthClose_ClosesPreviousMonthOnce(t *testing.T) {
	// GIVEN: A seeded January and a clock in February
	e := newEnv(t)
	e.seed(t)
	sched := api.NewMonthCloseScheduler(e.handler)
	ctx := context.Background()

	// WHEN: The scheduler runs twice
	first := sched.RunNow(ctx)
	second := sched.RunNow(ctx)

	// THEN: January is closed once and skipped afterwards
	assert.Equal(t, calendar.MonthPeriod(2025, time.January), first.Period)
	assert.Equal(t, 1, first.Closed)
	assert.Equal(t, 0, second.Closed)
	assert.Equal(t, 1, second.Skipped)

	closed, err := e.store.IsPeriodClosed(ctx, "org-1", first.Period)
	require.NoError(t, err)
	assert.True(t, closed)

	// AND: The one-time bonus is recorded as paid
	payouts, err := e.store.BonusPayouts(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, "b-1", payouts[0].BonusID)
	assert.Equal(t, first.Period, payouts[0].Period)

	// AND: The closed month's payslip data still includes it
	rec := e.do(t, http.MethodGet, "/api/employees/emp-1/payroll?month=2025-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, money.Agorot(55000), decodeAs[api.PayrollResponse](t, rec).Summary.Totals.TotalPay)
}

func TestMonthClose_LeavesUnconfiguredOrganizationOpen(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/api/organizations", api.OrganizationRequest{ID: "bare", Name: "Bare"})
	require.Equal(t, http.StatusCreated, rec.Code)

	report := api.NewMonthCloseScheduler(e.handler).RunNow(context.Background())
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Closed)
}

func TestPreviousMonth(t *testing.T) {
	jerusalem, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)

	// 23:30 UTC on Jan 31 is already Feb 1 in Jerusalem.
	now := time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, calendar.MonthPeriod(2024, time.December), api.PreviousMonth(now, time.UTC))
	assert.Equal(t, calendar.MonthPeriod(2025, time.January), api.PreviousMonth(now, jerusalem))
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestLoadScenario_ReplacesData(t *testing.T) {
	// GIVEN: Existing data and a platform zone
	e := newEnv(t)
	e.seed(t)
	rec := e.do(t, http.MethodPut, "/api/settings/timezone", api.TimezoneDTO{Timezone: "Asia/Jerusalem"})
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN: The retail scenario is loaded
	rec = e.do(t, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "retail-week"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	loaded := decodeAs[api.LoadScenarioResponse](t, rec)
	assert.Equal(t, "2025-01", loaded.Month)

	// THEN: Old data is gone, the zone is kept
	rec = e.do(t, http.MethodGet, "/api/employees/emp-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = e.do(t, http.MethodGet, "/api/settings/timezone", nil)
	assert.Equal(t, "Asia/Jerusalem", decodeAs[api.TimezoneDTO](t, rec).Timezone)

	// AND: The scenario month computes for both employees
	rec = e.do(t, http.MethodGet, "/api/organizations/"+loaded.OrganizationID+"/payroll?month="+loaded.Month, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	batch := decodeAs[api.BatchResponse](t, rec)
	assert.Len(t, batch.Employees, 2)
	assert.Zero(t, batch.Failed)
	assert.Positive(t, int64(batch.TotalPay))

	rec = e.do(t, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "retail-week", decodeAs[api.ScenarioDTO](t, rec).ID)
}

func TestLoadScenario_All(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeAs[[]api.ScenarioDTO](t, rec)
	require.NotEmpty(t, list)

	for _, s := range list {
		t.Run(s.ID, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: s.ID})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			loaded := decodeAs[api.LoadScenarioResponse](t, rec)

			rec = e.do(t, http.MethodGet, "/api/organizations/"+loaded.OrganizationID+"/payroll?month="+loaded.Month, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Zero(t, decodeAs[api.BatchResponse](t, rec).Failed)
		})
	}
}

func TestLoadScenario_NightShiftsUseWorkTypeRule(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "night-security"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	loaded := decodeAs[api.LoadScenarioResponse](t, rec)

	rec = e.do(t, http.MethodGet, "/api/employees/emp-avi/payroll?month="+loaded.Month, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decodeAs[api.PayrollResponse](t, rec).Summary

	// 22:00-07:00 is 9 hours: 7 regular, 2 at tier 1 under the night rule.
	require.NotEmpty(t, summary.Shifts)
	first := summary.Shifts[0]
	assert.Equal(t, "night", first.WorkTypeID)
	assert.Equal(t, 420, first.RegularMinutes)
	assert.Equal(t, 120, first.OvertimeTier1Minutes)
	require.Len(t, summary.Excluded, 1)
	assert.Equal(t, payroll.ExcludedIncomplete, summary.Excluded[0].Reason)
}

func TestLoadScenario_Unknown(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "nope"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "scenarioId", decodeAs[api.ErrorResponse](t, rec).Field)
}
