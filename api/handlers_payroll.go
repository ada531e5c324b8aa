package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/employee"
	"github.com/warp/shift-payroll/export"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/store"
)

// =============================================================================
// INPUT ASSEMBLY
// =============================================================================

// periodInput loads one employee's shifts, bonuses and recorded payouts.
func (h *Handler) periodInput(ctx context.Context, emp employee.Employee, rules payroll.RuleSet,
	days calendar.HolidayMap, p calendar.Period, loc *time.Location) (payroll.PeriodInput, error) {

	shifts, err := h.Store.ShiftsInPeriod(ctx, emp.ID, p, loc)
	if err != nil {
		return payroll.PeriodInput{}, fmt.Errorf("shifts: %w", err)
	}
	bonuses, err := h.Store.ListBonuses(ctx, emp.ID, &p)
	if err != nil {
		return payroll.PeriodInput{}, fmt.Errorf("bonuses: %w", err)
	}
	payouts, err := h.Store.BonusPayouts(ctx, emp.ID)
	if err != nil {
		return payroll.PeriodInput{}, fmt.Errorf("bonus payouts: %w", err)
	}
	settled, paid := store.PayoutStatus(payouts, bonuses, p)
	return payroll.PeriodInput{
		EmployeeID:            emp.ID,
		Period:                p,
		Location:              loc,
		Shifts:                shifts,
		HourlyRate:            emp.HourlyRate,
		Rules:                 rules,
		Holidays:              days,
		Bonuses:               bonuses,
		PaidOneTimeBonuses:    paid,
		SettledOneTimeBonuses: settled,
		Bounds:                h.Bounds,
	}, nil
}

// CalculateEmployee runs payroll for one employee over p.
func (h *Handler) CalculateEmployee(ctx context.Context, emp employee.Employee, p calendar.Period, loc *time.Location) (payroll.PeriodSummary, error) {
	rules, err := h.Store.RuleSet(ctx, emp.OrganizationID)
	if err != nil {
		return payroll.PeriodSummary{}, err
	}
	days, err := h.Holidays.Days(ctx, emp.OrganizationID, p)
	if err != nil {
		return payroll.PeriodSummary{}, err
	}
	in, err := h.periodInput(ctx, emp, rules, days, p, loc)
	if err != nil {
		return payroll.PeriodSummary{}, err
	}
	return payroll.CalculatePeriod(in)
}

// CalculateOrganization runs payroll for every employee of an organization.
// Per-employee failures are in the results; the error is for failures that
// stop the whole run.
func (h *Handler) CalculateOrganization(ctx context.Context, orgID string, p calendar.Period, loc *time.Location) ([]employee.Employee, []payroll.BatchResult, error) {
	rules, err := h.Store.RuleSet(ctx, orgID)
	if err != nil {
		return nil, nil, err
	}
	if err := rules.Validate(); err != nil {
		return nil, nil, err
	}
	days, err := h.Holidays.Days(ctx, orgID, p)
	if err != nil {
		return nil, nil, err
	}
	emps, err := h.Store.ListEmployees(ctx, orgID)
	if err != nil {
		return nil, nil, err
	}

	inputs := make([]payroll.PeriodInput, len(emps))
	for i, emp := range emps {
		if inputs[i], err = h.periodInput(ctx, emp, rules, days, p, loc); err != nil {
			return nil, nil, fmt.Errorf("employee %s: %w", emp.ID, err)
		}
	}
	results, err := payroll.CalculateBatch(ctx, inputs, h.Workers)
	if err != nil {
		return nil, nil, err
	}
	return emps, results, nil
}

// =============================================================================
// EMPLOYEE PAYROLL HANDLERS
// =============================================================================

type employeeRun struct {
	emp     employee.Employee
	period  calendar.Period
	loc     *time.Location
	summary payroll.PeriodSummary
}

// runEmployee does the shared work of the employee payroll endpoints and
// writes the error response itself when it returns false.
func (h *Handler) runEmployee(w http.ResponseWriter, r *http.Request) (employeeRun, bool) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, r, "Employee", err)
		return employeeRun{}, false
	}
	loc, ok := h.location(w, r)
	if !ok {
		return employeeRun{}, false
	}
	period, err := parsePeriod(r, loc, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return employeeRun{}, false
	}
	summary, err := h.CalculateEmployee(r.Context(), *emp, period, loc)
	if err != nil {
		h.engineError(w, r, err)
		return employeeRun{}, false
	}
	return employeeRun{emp: *emp, period: period, loc: loc, summary: summary}, true
}

// GetPayroll returns the itemized payroll of one employee.
// GET /api/employees/{id}/payroll?from=&to= (or month=YYYY-MM)
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runEmployee(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, PayrollResponse{
		Employee: toEmployeeDTO(run.emp),
		Timezone: run.loc.String(),
		Summary:  run.summary,
		Display:  toTotalsDisplay(run.summary.Totals),
	})
}

// FinalizePayroll records the one-time bonuses paid in this period so a
// later calculation of the same period does not pay them again.
// POST /api/employees/{id}/payroll/finalize?from=&to=
func (h *Handler) FinalizePayroll(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runEmployee(w, r)
	if !ok {
		return
	}
	if err := h.Store.RecordBonusPayouts(r.Context(), run.emp.ID, run.period, run.summary.Bonuses); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to record bonus payouts", err)
		return
	}
	h.Logger.InfoContext(r.Context(), "payroll finalized",
		"employee_id", run.emp.ID,
		"period", run.period.String(),
		"total_pay", int64(run.summary.Totals.TotalPay),
		"one_time_bonuses", run.summary.OneTimeBonusIDs())

	writeJSON(w, http.StatusOK, PayrollResponse{
		Employee: toEmployeeDTO(run.emp),
		Timezone: run.loc.String(),
		Summary:  run.summary,
		Display:  toTotalsDisplay(run.summary.Totals),
	})
}

// ExportPayroll streams the payroll workbook.
// GET /api/employees/{id}/payroll/export.xlsx
func (h *Handler) ExportPayroll(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runEmployee(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, run.emp, run.summary, run.loc); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}
	writeFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		fileName("payroll", run.emp.ID, run.period, "xlsx"), buf.Bytes())
}

// Payslip streams the PDF payslip.
// GET /api/employees/{id}/payroll/payslip.pdf
func (h *Handler) Payslip(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runEmployee(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WritePayslip(&buf, run.emp, run.summary); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to build payslip", err)
		return
	}
	writeFile(w, "application/pdf", fileName("payslip", run.emp.ID, run.period, "pdf"), buf.Bytes())
}

// =============================================================================
// ORGANIZATION PAYROLL
// =============================================================================

// GetOrganizationPayroll runs payroll for all employees of an organization.
// GET /api/organizations/{id}/payroll?month=YYYY-MM
func (h *Handler) GetOrganizationPayroll(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "id")
	loc, ok := h.location(w, r)
	if !ok {
		return
	}
	period, err := parsePeriod(r, loc, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	emps, results, err := h.CalculateOrganization(r.Context(), orgID, period, loc)
	if err != nil {
		if isStoreError(err) {
			h.storeError(w, r, "Organization", err)
			return
		}
		h.engineError(w, r, err)
		return
	}

	resp := BatchResponse{
		OrganizationID: orgID,
		Period:         period,
		Timezone:       loc.String(),
		Employees:      make([]BatchEntryDTO, len(results)),
	}
	for i, res := range results {
		entry := BatchEntryDTO{EmployeeID: res.EmployeeID, Name: emps[i].Name}
		if res.Err != nil {
			entry.Error = res.Err.Error()
			resp.Failed++
		} else {
			totals := res.Summary.Totals
			entry.Totals = &totals
			entry.Excluded = len(res.Summary.Excluded)
			resp.TotalPay += totals.TotalPay
		}
		resp.Employees[i] = entry
	}
	resp.TotalDisplay = resp.TotalPay.String()
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeFile(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func fileName(kind, employeeID string, p calendar.Period, ext string) string {
	return fmt.Sprintf("%s-%s-%s-%s.%s", kind, employeeID, p.From, p.To, ext)
}
