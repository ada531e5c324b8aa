package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/money"
	"github.com/warp/shift-payroll/payroll"
)

// =============================================================================
// BONUSES
// =============================================================================

// CreateBonus inserts an employee bonus. An existing bonus ID is ErrConflict.
func (s *Store) CreateBonus(ctx context.Context, employeeID string, b payroll.Bonus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.exec(ctx, `
		INSERT INTO bonuses (id, employee_id, name, bonus_type, amount_per_hour, amount_fixed, valid_from, valid_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, employeeID, b.Name, string(b.Type), int64(b.AmountPerHour), int64(b.AmountFixed),
		nullDate(b.ValidFrom), nullDate(b.ValidTo), now())
}

// ListBonuses returns an employee's bonuses. With a non-nil period only
// bonuses whose window overlaps it are returned.
func (s *Store) ListBonuses(ctx context.Context, employeeID string, p *calendar.Period) ([]payroll.Bonus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.query(ctx, `
		SELECT id, name, bonus_type, amount_per_hour, amount_fixed, valid_from, valid_to
		FROM bonuses
		WHERE employee_id = ?
		ORDER BY created_at, id
	`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []payroll.Bonus{}
	for rows.Next() {
		var b payroll.Bonus
		var typ string
		var perHour, fixed int64
		var from, to sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &typ, &perHour, &fixed, &from, &to); err != nil {
			return nil, err
		}
		b.Type = payroll.BonusType(typ)
		b.AmountPerHour = money.Agorot(perHour)
		b.AmountFixed = money.Agorot(fixed)
		if b.ValidFrom, err = parseNullDate(from); err != nil {
			return nil, err
		}
		if b.ValidTo, err = parseNullDate(to); err != nil {
			return nil, err
		}
		if p != nil && !p.Overlaps(b.ValidFrom, b.ValidTo) {
			continue
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// =============================================================================
// BONUS PAYOUTS - one-time bonuses already paid
// =============================================================================

// RecordBonusPayouts marks one-time bonuses as paid for a period. Recording
// the same bonus twice for a period is a no-op.
func (s *Store) RecordBonusPayouts(ctx context.Context, employeeID string, p calendar.Period, lines []payroll.BonusTotal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	paidAt := now()
	for _, line := range lines {
		if line.Type != payroll.BonusOneTime {
			continue
		}
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO bonus_payouts (bonus_id, employee_id, period_from, period_to, amount, paid_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(bonus_id, period_from, period_to) DO NOTHING
		`), line.BonusID, employeeID, p.From.String(), p.To.String(), int64(line.Amount), paidAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// BonusPayout is one recorded payment of a one-time bonus.
type BonusPayout struct {
	BonusID string          `json:"bonusId"`
	Period  calendar.Period `json:"period"`
	Amount  money.Agorot    `json:"amount"`
	PaidAt  time.Time       `json:"paidAt"`
}

// BonusPayouts lists every one-time bonus payment recorded for an employee,
// oldest first.
func (s *Store) BonusPayouts(ctx context.Context, employeeID string) ([]BonusPayout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.query(ctx, `
		SELECT bonus_id, period_from, period_to, amount, paid_at FROM bonus_payouts
		WHERE employee_id = ?
		ORDER BY paid_at, bonus_id
	`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []BonusPayout{}
	for rows.Next() {
		var p BonusPayout
		var from, to, paidAt string
		var amount int64
		if err := rows.Scan(&p.BonusID, &from, &to, &amount, &paidAt); err != nil {
			return nil, err
		}
		if p.Period.From, err = calendar.ParseDate(from); err != nil {
			return nil, err
		}
		if p.Period.To, err = calendar.ParseDate(to); err != nil {
			return nil, err
		}
		p.Amount = money.Agorot(amount)
		p.PaidAt, _ = parseTime(paidAt)
		list = append(list, p)
	}
	return list, rows.Err()
}

// PayoutStatus splits recorded payouts of bonuses against period p.
// Settled bonuses were paid for p itself; PaidElsewhere bonuses were paid
// for another period overlapping the bonus window and must not be paid
// again. Payouts of bonuses not in the list are ignored.
func PayoutStatus(payouts []BonusPayout, bonuses []payroll.Bonus, p calendar.Period) (settled, paidElsewhere []string) {
	windows := make(map[string]payroll.Bonus, len(bonuses))
	for _, b := range bonuses {
		windows[b.ID] = b
	}
	for _, po := range payouts {
		b, ok := windows[po.BonusID]
		if !ok {
			continue
		}
		switch {
		case po.Period == p:
			settled = append(settled, po.BonusID)
		case po.Period.Overlaps(b.ValidFrom, b.ValidTo):
			paidElsewhere = append(paidElsewhere, po.BonusID)
		}
	}
	return settled, paidElsewhere
}

func nullDate(d *calendar.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return nullString(d.String())
}

func parseNullDate(s sql.NullString) (*calendar.Date, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := calendar.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
