/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON shapes of the HTTP API. Engine and store types are returned as they
  are where their JSON is already the contract (PeriodSummary, ShiftPay,
  WorkRule); the types here cover input parsing and display fields.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Requests carry shekels as JSON numbers and are validated against the
  configured bounds on entry. Responses carry agorot integers plus a
  formatted display string.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/period.go: PeriodSummary JSON
*/
package api

import (
	"time"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/employee"
	"github.com/warp/shift-payroll/money"
	"github.com/warp/shift-payroll/payroll"
)

// =============================================================================
// ORGANIZATIONS
// =============================================================================

// OrganizationRequest creates or updates an organization.
type OrganizationRequest struct {
	ID       string            `json:"id,omitempty"`
	Name     string            `json:"name"`
	WorkRule *payroll.WorkRule `json:"workRule,omitempty"`
}

// WorkTypeRequest creates or updates a work type. A nil rule inherits the
// organization rule.
type WorkTypeRequest struct {
	Name string            `json:"name"`
	Rule *payroll.WorkRule `json:"rule,omitempty"`
}

// HolidayRequest flags one date. Global applies it to every organization.
type HolidayRequest struct {
	Date       string `json:"date"`
	Name       string `json:"name"`
	IsHoliday  bool   `json:"isHoliday"`
	IsRestDay  bool   `json:"isRestDay"`
	IsShortDay bool   `json:"isShortDay"`
	Global     bool   `json:"global"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID                string       `json:"id"`
	OrganizationID    string       `json:"organizationId"`
	Name              string       `json:"name"`
	NationalID        string       `json:"nationalId"`
	HourlyRate        float64      `json:"hourlyRate"`
	HourlyRateAgorot  money.Agorot `json:"hourlyRateAgorot"`
	HourlyRateDisplay string       `json:"hourlyRateDisplay"`
}

// CreateEmployeeRequest is the body of POST /api/employees. HourlyRate is
// in shekels.
type CreateEmployeeRequest struct {
	ID             string  `json:"id,omitempty"`
	OrganizationID string  `json:"organizationId"`
	Name           string  `json:"name"`
	NationalID     string  `json:"nationalId"`
	HourlyRate     float64 `json:"hourlyRate"`
}

func toEmployeeDTO(e employee.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:                e.ID,
		OrganizationID:    e.OrganizationID,
		Name:              e.Name,
		NationalID:        e.NationalID,
		HourlyRate:        e.HourlyRate.Shekels(),
		HourlyRateAgorot:  e.HourlyRate,
		HourlyRateDisplay: e.HourlyRate.String(),
	}
}

// =============================================================================
// SHIFTS
// =============================================================================

// CreateShiftRequest records a shift in one of two forms:
//
//	live:  startTime (and endTime once clocked out) as RFC3339 timestamps
//	retro: date plus start/end wall-clock "HH:MM" in the platform time zone;
//	       an end earlier than start runs past midnight
type CreateShiftRequest struct {
	ID         string     `json:"id,omitempty"`
	StartTime  *time.Time `json:"startTime,omitempty"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	Date       string     `json:"date,omitempty"`
	Start      string     `json:"start,omitempty"`
	End        string     `json:"end,omitempty"`
	WorkTypeID string     `json:"workTypeId,omitempty"`
}

// ShiftDTO is a stored shift with its duration when closed.
type ShiftDTO struct {
	payroll.Shift
	Date     calendar.Date `json:"date"`
	Minutes  *int          `json:"minutes"`
	Duration string        `json:"duration,omitempty"`
}

// =============================================================================
// BONUSES
// =============================================================================

// CreateBonusRequest is the body of POST /api/employees/{id}/bonuses and
// an entry of CalcShiftRequest.Bonuses. Amounts are shekels.
type CreateBonusRequest struct {
	ID            string            `json:"id,omitempty"`
	Name          string            `json:"name"`
	Type          payroll.BonusType `json:"bonusType"`
	AmountPerHour float64           `json:"amountPerHour"`
	AmountFixed   float64           `json:"amountFixed"`
	ValidFrom     *calendar.Date    `json:"validFrom,omitempty"`
	ValidTo       *calendar.Date    `json:"validTo,omitempty"`
}

// =============================================================================
// PAYROLL
// =============================================================================

// PayrollResponse is one employee's payroll for a period.
type PayrollResponse struct {
	Employee EmployeeDTO           `json:"employee"`
	Timezone string                `json:"timezone"`
	Summary  payroll.PeriodSummary `json:"summary"`
	Display  TotalsDisplay         `json:"display"`
}

// TotalsDisplay holds the formatted totals, e.g. "1,234.50 ₪".
type TotalsDisplay struct {
	RegularPay  string `json:"regularPay"`
	OvertimePay string `json:"overtimePay"`
	BonusPay    string `json:"bonusPay"`
	TotalPay    string `json:"totalPay"`
	Worked      string `json:"worked"`
}

func toTotalsDisplay(t payroll.Totals) TotalsDisplay {
	return TotalsDisplay{
		RegularPay:  t.RegularPay.String(),
		OvertimePay: (t.OvertimeTier1Pay + t.OvertimeTier2Pay).String(),
		BonusPay:    t.BonusPay.String(),
		TotalPay:    t.TotalPay.String(),
		Worked:      formatWorked(t.WorkedMinutes),
	}
}

// BatchEntryDTO is one employee of an organization payroll run.
type BatchEntryDTO struct {
	EmployeeID string          `json:"employeeId"`
	Name       string          `json:"name"`
	Totals     *payroll.Totals `json:"totals,omitempty"`
	Excluded   int             `json:"excluded"`
	Error      string          `json:"error,omitempty"`
}

// BatchResponse is GET /api/organizations/{id}/payroll.
type BatchResponse struct {
	OrganizationID string          `json:"organizationId"`
	Period         calendar.Period `json:"period"`
	Timezone       string          `json:"timezone"`
	Employees      []BatchEntryDTO `json:"employees"`
	TotalPay       money.Agorot    `json:"totalPay"`
	TotalDisplay   string          `json:"totalDisplay"`
	Failed         int             `json:"failed"`
}

// =============================================================================
// CALCULATOR
// =============================================================================

// CalcShiftRequest prices one shift without touching the store. Either
// startTime/endTime or date+start/end is required. A nil rule uses
// payroll.DefaultWorkRule.
type CalcShiftRequest struct {
	StartTime  *time.Time           `json:"startTime,omitempty"`
	EndTime    *time.Time           `json:"endTime,omitempty"`
	Date       string               `json:"date,omitempty"`
	Start      string               `json:"start,omitempty"`
	End        string               `json:"end,omitempty"`
	HourlyRate float64              `json:"hourlyRate"`
	Rule       *payroll.WorkRule    `json:"rule,omitempty"`
	Day        calendar.DayInfo     `json:"day"`
	Bonuses    []CreateBonusRequest `json:"bonuses,omitempty"`
}

// DurationDTO is GET /api/calc/duration.
type DurationDTO struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Minutes   int    `json:"minutes"`
	Formatted string `json:"formatted"`
}

// AmountDTO is GET /api/calc/amount.
type AmountDTO struct {
	Shekels float64      `json:"shekels"`
	Agorot  money.Agorot `json:"agorot"`
	Display string       `json:"display"`
}

// NationalIDDTO is GET /api/calc/national-id.
type NationalIDDTO struct {
	ID    string `json:"id"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// TimezoneDTO is GET/PUT /api/settings/timezone.
type TimezoneDTO struct {
	Timezone string `json:"timezone"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}
