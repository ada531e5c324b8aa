package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/employee"
	"github.com/warp/shift-payroll/money"
	"github.com/warp/shift-payroll/payroll"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// CreateEmployee inserts a new employee. An existing ID is ErrConflict.
func (s *Store) CreateEmployee(ctx context.Context, e employee.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.exec(ctx, `
		INSERT INTO employees (id, organization_id, name, national_id, hourly_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.OrganizationID, e.Name, e.NationalID, int64(e.HourlyRate), now())
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e employee.Employee
	var rate int64
	err := s.queryRow(ctx,
		"SELECT id, organization_id, name, national_id, hourly_rate FROM employees WHERE id = ?", id,
	).Scan(&e.ID, &e.OrganizationID, &e.Name, &e.NationalID, &rate)
	if err != nil {
		return nil, notFound("employee", id, err)
	}
	e.HourlyRate = money.Agorot(rate)
	return &e, nil
}

// ListEmployees returns employees by name. An empty orgID lists everyone.
func (s *Store) ListEmployees(ctx context.Context, orgID string) ([]employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.query(ctx, `
		SELECT id, organization_id, name, national_id, hourly_rate
		FROM employees
		WHERE ? = '' OR organization_id = ?
		ORDER BY name, id
	`, orgID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []employee.Employee{}
	for rows.Next() {
		var e employee.Employee
		var rate int64
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.Name, &e.NationalID, &rate); err != nil {
			return nil, err
		}
		e.HourlyRate = money.Agorot(rate)
		list = append(list, e)
	}
	return list, rows.Err()
}

// =============================================================================
// SHIFTS
// =============================================================================

// CreateShift inserts a shift for an employee. Times are stored in UTC. An
// existing shift ID, whoever owns it, is ErrConflict.
func (s *Store) CreateShift(ctx context.Context, employeeID string, sh payroll.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var end sql.NullString
	if sh.End != nil {
		end = nullString(formatTime(*sh.End))
	}
	return s.exec(ctx, `
		INSERT INTO shifts (id, employee_id, start_time, end_time, is_retro, work_type_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sh.ID, employeeID, formatTime(sh.Start), end, sh.IsRetro, sh.WorkTypeID, now())
}

// ListShifts returns an employee's shifts starting in [from, to), ordered by
// start time.
func (s *Store) ListShifts(ctx context.Context, employeeID string, from, to time.Time) ([]payroll.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.query(ctx, `
		SELECT id, start_time, end_time, is_retro, work_type_id
		FROM shifts
		WHERE employee_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time, id
	`, employeeID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := []payroll.Shift{}
	for rows.Next() {
		var sh payroll.Shift
		var start string
		var end sql.NullString
		if err := rows.Scan(&sh.ID, &start, &end, &sh.IsRetro, &sh.WorkTypeID); err != nil {
			return nil, err
		}
		if sh.Start, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("shift %s start: %w", sh.ID, err)
		}
		if end.Valid {
			t, err := parseTime(end.String)
			if err != nil {
				return nil, fmt.Errorf("shift %s end: %w", sh.ID, err)
			}
			sh.End = &t
		}
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

// ShiftsInPeriod returns the shifts whose start falls on a date of p in loc.
func (s *Store) ShiftsInPeriod(ctx context.Context, employeeID string, p calendar.Period, loc *time.Location) ([]payroll.Shift, error) {
	from, to := p.Bounds(loc)
	return s.ListShifts(ctx, employeeID, from, to)
}
