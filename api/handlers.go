/*
handlers.go - HTTP API handlers for the shift payroll service

PURPOSE:
  Exposes the payroll engine over REST. Handlers load records from the
  store, resolve the platform time zone and holiday calendar, call the pure
  engine, and serialize the result. The engine itself never sees HTTP or SQL.

ENDPOINTS:
  Organizations:
    GET    /api/organizations                         List organizations
    POST   /api/organizations                         Create organization
    GET    /api/organizations/{id}                    Organization + work types
    PUT    /api/organizations/{id}                    Update name / work rule
    PUT    /api/organizations/{id}/work-types/{wtID}  Create/update work type
    GET    /api/organizations/{id}/holidays           Holidays in a period
    POST   /api/organizations/{id}/holidays           Flag a date
    GET    /api/organizations/{id}/payroll            Batch payroll (month=YYYY-MM)

  Employees:
    GET    /api/employees                             List employees
    POST   /api/employees                             Create employee
    GET    /api/employees/{id}                        Employee details
    GET    /api/employees/{id}/shifts                 Shifts in a period
    POST   /api/employees/{id}/shifts                 Record a shift
    GET    /api/employees/{id}/bonuses                Bonuses
    POST   /api/employees/{id}/bonuses                Create bonus
    GET    /api/employees/{id}/payroll                Period summary
    POST   /api/employees/{id}/payroll/finalize       Record one-time payouts
    GET    /api/employees/{id}/payroll/export.xlsx    Workbook download
    GET    /api/employees/{id}/payroll/payslip.pdf    Payslip download

  Settings / calculator: see handlers_calc.go

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: database access
  - Zone: cached platform time zone (read-through, TTL)
  - Holidays: calendar provider (Sabbath rules over stored holidays)
  - Bounds: accepted shekel range for rates and bonuses

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: invalid input, field-level validation (ErrorResponse.Field)
  - 404: record not found
  - 409: duplicate record
  - 422: organization has no usable work rule
  - 500: internal errors (logged with the request ID)

SEE ALSO:
  - dto.go: Request/response data structures
  - handlers_payroll.go: payroll, finalize, exports, batch
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/employee"
	"github.com/warp/shift-payroll/money"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/shifttime"
	"github.com/warp/shift-payroll/store"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *store.Store
	Zone     *calendar.ZoneCache
	Holidays calendar.Provider
	Logger   *slog.Logger
	Bounds   money.Bounds
	Workers  int
	NewID    func() string
}

// NewHandler wires a handler to a store and a time zone cache. Holidays
// default to stored entries plus weekly Sabbath rules.
func NewHandler(s *store.Store, zone *calendar.ZoneCache, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:    s,
		Zone:     zone,
		Holidays: calendar.SabbathProvider{Next: s},
		Logger:   logger,
		Bounds:   money.DefaultBounds,
		Workers:  payroll.DefaultBatchWorkers,
		NewID:    uuid.NewString,
	}
}

// =============================================================================
// ORGANIZATION HANDLERS
// =============================================================================

// ListOrganizations returns all organizations.
func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.Store.ListOrganizations(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to list organizations", err)
		return
	}
	writeJSON(w, http.StatusOK, orgs)
}

// CreateOrganization creates an organization with an optional work rule.
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req OrganizationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeFieldError(w, "name", "Name is required", nil)
		return
	}
	if req.WorkRule != nil {
		if err := req.WorkRule.Validate(); err != nil {
			writeFieldError(w, "workRule", "Invalid work rule", err)
			return
		}
	}
	if req.ID == "" {
		req.ID = h.NewID()
	}

	org := store.Organization{ID: req.ID, Name: req.Name, WorkRule: req.WorkRule}
	if err := h.Store.CreateOrganization(r.Context(), org); err != nil {
		h.saveError(w, r, "Organization", err)
		return
	}
	saved, err := h.Store.GetOrganization(r.Context(), org.ID)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to load organization", err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// GetOrganization returns an organization and its work types.
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	org, err := h.Store.GetOrganization(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "Organization", err)
		return
	}
	types, err := h.Store.ListWorkTypes(r.Context(), id)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to list work types", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"organization": org,
		"workTypes":    types,
	})
}

// UpdateOrganization replaces an organization's name and work rule.
func (h *Handler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.Store.GetOrganization(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "Organization", err)
		return
	}

	var req OrganizationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		req.Name = existing.Name
	}
	if req.WorkRule == nil {
		req.WorkRule = existing.WorkRule
	} else {
		if err := req.WorkRule.Validate(); err != nil {
			writeFieldError(w, "workRule", "Invalid work rule", err)
			return
		}
	}

	org := store.Organization{ID: id, Name: req.Name, WorkRule: req.WorkRule}
	if err := h.Store.UpdateOrganization(r.Context(), org); err != nil {
		h.saveError(w, r, "Organization", err)
		return
	}
	saved, err := h.Store.GetOrganization(r.Context(), id)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to load organization", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// PutWorkType creates or updates one work type of an organization.
func (h *Handler) PutWorkType(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "id")
	if _, err := h.Store.GetOrganization(r.Context(), orgID); err != nil {
		h.storeError(w, r, "Organization", err)
		return
	}

	var req WorkTypeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Rule != nil {
		if err := req.Rule.Validate(); err != nil {
			writeFieldError(w, "rule", "Invalid work rule", err)
			return
		}
	}

	wt := store.WorkType{
		ID:             chi.URLParam(r, "workTypeID"),
		OrganizationID: orgID,
		Name:           req.Name,
		Rule:           req.Rule,
	}
	if wt.Name == "" {
		wt.Name = wt.ID
	}
	if err := h.Store.SaveWorkType(r.Context(), wt); err != nil {
		h.saveError(w, r, "Work type", err)
		return
	}
	writeJSON(w, http.StatusOK, wt)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns stored and computed day flags for a period.
// GET /api/organizations/{id}/holidays?from=&to= (or month=YYYY-MM)
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
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
	days, err := h.Holidays.Days(r.Context(), orgID, period)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to load holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period": period,
		"days":   days,
	})
}

// CreateHoliday flags a date for an organization, or globally.
// POST /api/organizations/{id}/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Date and name are required", nil)
		return
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeFieldError(w, "date", "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	hol := store.Holiday{
		ID:             h.NewID(),
		OrganizationID: chi.URLParam(r, "id"),
		Date:           date,
		DayInfo: calendar.DayInfo{
			Name:       req.Name,
			IsHoliday:  req.IsHoliday,
			IsRestDay:  req.IsRestDay,
			IsShortDay: req.IsShortDay,
		},
	}
	if req.Global {
		hol.OrganizationID = ""
	}
	if err := h.Store.SaveHoliday(r.Context(), hol); err != nil {
		h.saveError(w, r, "Holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, hol)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees, optionally filtered by
// ?organizationId=.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListEmployees(r.Context(), r.URL.Query().Get("organizationId"))
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, len(list))
	for i, e := range list {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, r, "Employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee validates and stores a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, err := h.Store.GetOrganization(r.Context(), req.OrganizationID); err != nil {
		if store.IsNotFound(err) {
			writeFieldError(w, "organizationId", "Unknown organization", err)
			return
		}
		h.fail(w, r, http.StatusInternalServerError, "Failed to load organization", err)
		return
	}

	rate, err := money.Validate(req.HourlyRate, h.Bounds)
	if err != nil {
		writeFieldError(w, "hourlyRate", "Invalid hourly rate", err)
		return
	}
	emp := employee.Employee{
		ID:             req.ID,
		OrganizationID: req.OrganizationID,
		Name:           strings.TrimSpace(req.Name),
		NationalID:     strings.TrimSpace(req.NationalID),
		HourlyRate:     rate,
	}
	if err := emp.Validate(h.Bounds); err != nil {
		field := "name"
		if errors.Is(err, employee.ErrNationalIDLength) || errors.Is(err, employee.ErrNationalIDDigits) ||
			errors.Is(err, employee.ErrNationalIDChecksum) {
			field = "nationalId"
		}
		writeFieldError(w, field, "Invalid employee", err)
		return
	}
	if emp.ID == "" {
		emp.ID = h.NewID()
	}

	if err := h.Store.CreateEmployee(r.Context(), emp); err != nil {
		h.saveError(w, r, "Employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// ListShifts returns an employee's shifts in a period.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		h.storeError(w, r, "Employee", err)
		return
	}
	loc, ok := h.location(w, r)
	if !ok {
		return
	}
	period, err := parsePeriod(r, loc, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	shifts, err := h.Store.ShiftsInPeriod(r.Context(), id, period, loc)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}

	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = ShiftDTO{Shift: s, Date: s.Date(loc)}
		if m, err := s.Minutes(); err == nil {
			dtos[i].Minutes = &m
			dtos[i].Duration = shifttime.FormatMinutes(m)
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateShift records a live or retro shift.
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		h.storeError(w, r, "Employee", err)
		return
	}
	var req CreateShiftRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	loc, ok := h.location(w, r)
	if !ok {
		return
	}

	shift, field, err := buildShift(req.StartTime, req.EndTime, req.Date, req.Start, req.End, loc)
	if err != nil {
		writeFieldError(w, field, "Invalid shift", err)
		return
	}
	shift.ID = req.ID
	if shift.ID == "" {
		shift.ID = h.NewID()
	}
	shift.WorkTypeID = req.WorkTypeID

	if err := h.Store.CreateShift(r.Context(), id, shift); err != nil {
		h.saveError(w, r, "Shift", err)
		return
	}
	dto := ShiftDTO{Shift: shift, Date: shift.Date(loc)}
	if m, err := shift.Minutes(); err == nil {
		dto.Minutes = &m
		dto.Duration = shifttime.FormatMinutes(m)
	}
	writeJSON(w, http.StatusCreated, dto)
}

// buildShift turns either timestamps or a retro date with wall-clock times
// into a shift. The returned string names the offending field.
func buildShift(start, end *time.Time, date, startClock, endClock string, loc *time.Location) (payroll.Shift, string, error) {
	if date != "" {
		d, err := calendar.ParseDate(date)
		if err != nil {
			return payroll.Shift{}, "date", err
		}
		sc, err := shifttime.ParseTime(startClock)
		if err != nil {
			return payroll.Shift{}, "start", err
		}
		ec, err := shifttime.ParseTime(endClock)
		if err != nil {
			return payroll.Shift{}, "end", err
		}
		from, to, err := shifttime.ShiftBounds(d.Time(), sc, ec, loc)
		if err != nil {
			return payroll.Shift{}, "end", err
		}
		return payroll.Shift{Start: from, End: &to, IsRetro: true}, "", nil
	}

	if start == nil {
		return payroll.Shift{}, "startTime", errors.New("startTime or date is required")
	}
	if end != nil {
		if _, err := shifttime.Between(*start, *end); err != nil {
			return payroll.Shift{}, "endTime", err
		}
	}
	return payroll.Shift{Start: *start, End: end}, "", nil
}

// =============================================================================
// BONUS HANDLERS
// =============================================================================

// ListBonuses returns an employee's bonuses.
func (h *Handler) ListBonuses(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		h.storeError(w, r, "Employee", err)
		return
	}
	list, err := h.Store.ListBonuses(r.Context(), id, nil)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to list bonuses", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateBonus validates and stores a bonus.
func (h *Handler) CreateBonus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		h.storeError(w, r, "Employee", err)
		return
	}
	var req CreateBonusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	b, field, err := bonusFromRequest(req, h.Bounds)
	if err != nil {
		writeFieldError(w, field, "Invalid amount", err)
		return
	}
	if b.ID == "" {
		b.ID = h.NewID()
	}
	if err := b.Validate(h.Bounds); err != nil {
		h.engineError(w, r, err)
		return
	}

	if err := h.Store.CreateBonus(r.Context(), id, b); err != nil {
		h.saveError(w, r, "Bonus", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// bonusFromRequest converts shekel amounts to agorot. The returned string
// names the offending field.
func bonusFromRequest(req CreateBonusRequest, bounds money.Bounds) (payroll.Bonus, string, error) {
	b := payroll.Bonus{
		ID:        req.ID,
		Name:      req.Name,
		Type:      req.Type,
		ValidFrom: req.ValidFrom,
		ValidTo:   req.ValidTo,
	}
	var err error
	switch req.Type {
	case payroll.BonusHourly:
		if b.AmountPerHour, err = money.Validate(req.AmountPerHour, bounds); err != nil {
			return payroll.Bonus{}, "amountPerHour", err
		}
	case payroll.BonusOneTime:
		if b.AmountFixed, err = money.Validate(req.AmountFixed, bounds); err != nil {
			return payroll.Bonus{}, "amountFixed", err
		}
	}
	return b, "", nil
}

// =============================================================================
// HELPERS
// =============================================================================

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeFieldError(w http.ResponseWriter, field, message string, err error) {
	resp := ErrorResponse{Error: message, Field: field}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// fail logs server-side failures with the request ID before responding.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		h.Logger.ErrorContext(r.Context(), message,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	writeError(w, status, message, err)
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, kind string, err error) {
	switch {
	case store.IsNotFound(err):
		writeError(w, http.StatusNotFound, kind+" not found", nil)
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, kind+" already exists", err)
	default:
		h.fail(w, r, http.StatusInternalServerError, fmt.Sprintf("Failed to load %s", strings.ToLower(kind)), err)
	}
}

// saveError maps write failures: 409 for a taken ID, 404 for a vanished
// record, 500 otherwise.
func (h *Handler) saveError(w http.ResponseWriter, r *http.Request, kind string, err error) {
	switch {
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, kind+" already exists", err)
	case store.IsNotFound(err):
		writeError(w, http.StatusNotFound, kind+" not found", nil)
	default:
		h.fail(w, r, http.StatusInternalServerError, "Failed to save "+strings.ToLower(kind), err)
	}
}

func isStoreError(err error) bool {
	return store.IsNotFound(err) || errors.Is(err, store.ErrConflict)
}

// engineError maps payroll errors to responses.
func (h *Handler) engineError(w http.ResponseWriter, r *http.Request, err error) {
	var rec *payroll.RecordError
	switch {
	case errors.As(err, &rec):
		writeFieldError(w, rec.Field, "Invalid "+rec.Field, err)
	case payroll.IsConfigError(err):
		writeError(w, http.StatusUnprocessableEntity, "Organization work rule is not usable", err)
	case errors.Is(err, calendar.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, "Invalid period", err)
	case errors.Is(err, payroll.ErrInvalidBonus):
		writeError(w, http.StatusBadRequest, "Invalid bonus", err)
	default:
		h.fail(w, r, http.StatusInternalServerError, "Payroll calculation failed", err)
	}
}

// location returns the cached platform time zone.
func (h *Handler) location(w http.ResponseWriter, r *http.Request) (*time.Location, bool) {
	loc, err := h.Zone.Get(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to resolve platform time zone", err)
		return nil, false
	}
	return loc, true
}

func (h *Handler) now() time.Time {
	if h.Zone != nil && h.Zone.Now != nil {
		return h.Zone.Now()
	}
	return time.Now()
}

// parsePeriod reads ?from=&to= or ?month=YYYY-MM. With neither, the current
// month in loc is used.
func parsePeriod(r *http.Request, loc *time.Location, now time.Time) (calendar.Period, error) {
	q := r.URL.Query()
	if month := q.Get("month"); month != "" {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return calendar.Period{}, fmt.Errorf("month %q: use YYYY-MM", month)
		}
		return calendar.MonthPeriod(t.Year(), t.Month()), nil
	}
	from, to := q.Get("from"), q.Get("to")
	if from == "" && to == "" {
		today := calendar.DateOf(now, loc)
		return calendar.MonthPeriod(today.Year, today.Month), nil
	}
	f, err := calendar.ParseDate(from)
	if err != nil {
		return calendar.Period{}, fmt.Errorf("from: %w", err)
	}
	t, err := calendar.ParseDate(to)
	if err != nil {
		return calendar.Period{}, fmt.Errorf("to: %w", err)
	}
	p := calendar.Period{From: f, To: t}
	return p, p.Validate()
}

func formatWorked(minutes int) string {
	return shifttime.FormatMinutes(minutes)
}
