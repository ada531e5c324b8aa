package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/warp/shift-payroll/employee"
	"github.com/warp/shift-payroll/money"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/shifttime"
)

// =============================================================================
// SETTINGS
// =============================================================================

// GetTimezone returns the platform time zone currently in effect.
// GET /api/settings/timezone
func (h *Handler) GetTimezone(w http.ResponseWriter, r *http.Request) {
	loc, ok := h.location(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, TimezoneDTO{Timezone: loc.String()})
}

// PutTimezone stores a new platform time zone and drops the cached one so
// the next request sees it.
// PUT /api/settings/timezone
func (h *Handler) PutTimezone(w http.ResponseWriter, r *http.Request) {
	var req TimezoneDTO
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Store.SetPlatformTimezone(r.Context(), req.Timezone); err != nil {
		writeFieldError(w, "timezone", "Invalid time zone", err)
		return
	}
	h.Zone.Invalidate()
	h.Logger.InfoContext(r.Context(), "platform time zone changed", "timezone", req.Timezone)
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// CALCULATOR - stateless engine access
// =============================================================================

// CalcShift prices a single shift from the request body alone.
// POST /api/calc/shift
func (h *Handler) CalcShift(w http.ResponseWriter, r *http.Request) {
	var req CalcShiftRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	loc, ok := h.location(w, r)
	if !ok {
		return
	}

	rate, err := money.Validate(req.HourlyRate, h.Bounds)
	if err != nil {
		writeFieldError(w, "hourlyRate", "Invalid hourly rate", err)
		return
	}
	shift, field, err := buildShift(req.StartTime, req.EndTime, req.Date, req.Start, req.End, loc)
	if err != nil {
		writeFieldError(w, field, "Invalid shift", err)
		return
	}
	shift.ID = "calc"

	bonuses := make([]payroll.Bonus, len(req.Bonuses))
	for i, br := range req.Bonuses {
		b, field, err := bonusFromRequest(br, h.Bounds)
		if err != nil {
			writeFieldError(w, fmt.Sprintf("bonuses[%d].%s", i, field), "Invalid amount", err)
			return
		}
		if b.ID == "" {
			b.ID = fmt.Sprintf("bonus-%d", i+1)
		}
		bonuses[i] = b
	}

	rule := payroll.DefaultWorkRule()
	if req.Rule != nil {
		rule = *req.Rule
	}
	pay, err := payroll.CalculateShift(payroll.ShiftInput{
		Shift:      shift,
		Rule:       rule,
		HourlyRate: rate,
		Day:        req.Day,
		Bonuses:    bonuses,
		Location:   loc,
		Bounds:     h.Bounds,
	})
	if err != nil {
		h.engineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pay)
}

// CalcDuration returns the minutes between two wall-clock times.
// GET /api/calc/duration?start=HH:MM&end=HH:MM
func (h *Handler) CalcDuration(w http.ResponseWriter, r *http.Request) {
	start, end := r.URL.Query().Get("start"), r.URL.Query().Get("end")
	minutes, err := shifttime.DurationMinutes(start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid time range", err)
		return
	}
	writeJSON(w, http.StatusOK, DurationDTO{
		Start:     start,
		End:       end,
		Minutes:   minutes,
		Formatted: shifttime.FormatMinutes(minutes),
	})
}

// CalcAmount validates a shekel amount and shows its agorot value.
// GET /api/calc/amount?shekels=12.34
func (h *Handler) CalcAmount(w http.ResponseWriter, r *http.Request) {
	shekels, err := strconv.ParseFloat(r.URL.Query().Get("shekels"), 64)
	if err != nil {
		writeFieldError(w, "shekels", "Amount must be a number", err)
		return
	}
	agorot, err := money.Validate(shekels, h.Bounds)
	if err != nil {
		writeFieldError(w, "shekels", "Invalid amount", err)
		return
	}
	writeJSON(w, http.StatusOK, AmountDTO{
		Shekels: money.ToMajorUnits(agorot),
		Agorot:  agorot,
		Display: agorot.String(),
	})
}

// CalcNationalID checks an Israeli identity number.
// GET /api/calc/national-id?id=123456782
func (h *Handler) CalcNationalID(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	resp := NationalIDDTO{ID: id, Valid: true}
	if err := employee.ValidateNationalID(id); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
