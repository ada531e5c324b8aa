/*
Package export renders payroll summaries as files for people: an Excel
workbook with one row per shift and a one-page PDF payslip.

Both writers read a finished payroll.PeriodSummary and never compute pay
themselves. Amounts are written in shekels; agorot stay the unit of record.

SEE ALSO:
  - payroll/period.go: PeriodSummary
  - api/handlers_payroll.go: HTTP download endpoints
*/
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/warp/shift-payroll/employee"
	"github.com/warp/shift-payroll/payroll"
)

const (
	SheetShifts  = "Shifts"
	SheetSummary = "Summary"

	// builtin number format "#,##0.00"
	numFmtAmount = 4
)

var shiftHeader = []any{
	"Date", "Start", "End", "Day", "Work type", "Retro",
	"Worked (min)", "Regular (min)", "OT 1 (min)", "OT 2 (min)",
	"Regular pay", "OT 1 pay", "OT 2 pay", "Bonus", "Total",
}

// Workbook builds the payroll workbook for one employee. Times are shown in
// loc; nil means UTC. The caller closes the returned file.
func Workbook(emp employee.Employee, s payroll.PeriodSummary, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetShifts); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeShiftSheet(f, s, loc); err != nil {
		f.Close()
		return nil, fmt.Errorf("shifts sheet: %w", err)
	}
	if err := writeSummarySheet(f, emp, s); err != nil {
		f.Close()
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	return f, nil
}

// WriteWorkbook builds the workbook and writes it as .xlsx to w.
func WriteWorkbook(w io.Writer, emp employee.Employee, s payroll.PeriodSummary, loc *time.Location) error {
	f, err := Workbook(emp, s, loc)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeShiftSheet(f *excelize.File, s payroll.PeriodSummary, loc *time.Location) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: numFmtAmount})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetShifts, "A1", &shiftHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetShifts, "A1", "O1", bold); err != nil {
		return err
	}

	row := 2
	for _, sp := range s.Shifts {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []any{
			sp.Date.String(),
			sp.Start.In(loc).Format("15:04"),
			sp.End.In(loc).Format("15:04"),
			sp.DayType.String(),
			sp.WorkTypeID,
			sp.IsRetro,
			sp.WorkedMinutes, sp.RegularMinutes, sp.OvertimeTier1Minutes, sp.OvertimeTier2Minutes,
			sp.RegularPay.Shekels(), sp.OvertimeTier1Pay.Shekels(), sp.OvertimeTier2Pay.Shekels(),
			sp.BonusPay.Shekels(), sp.TotalPay.Shekels(),
		}
		if err := f.SetSheetRow(SheetShifts, cell, &values); err != nil {
			return err
		}
		row++
	}

	t := s.Totals
	totalCell, _ := excelize.CoordinatesToCellName(1, row)
	totals := []any{
		"Total", "", "", "", "", "",
		t.WorkedMinutes, t.RegularMinutes, t.OvertimeTier1Minutes, t.OvertimeTier2Minutes,
		t.RegularPay.Shekels(), t.OvertimeTier1Pay.Shekels(), t.OvertimeTier2Pay.Shekels(),
		t.BonusPay.Shekels(), t.TotalPay.Shekels(),
	}
	if err := f.SetSheetRow(SheetShifts, totalCell, &totals); err != nil {
		return err
	}
	lastTotal, _ := excelize.CoordinatesToCellName(15, row)
	if err := f.SetCellStyle(SheetShifts, totalCell, lastTotal, bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetShifts, "K2", lastTotal, amount); err != nil {
		return err
	}
	return f.SetColWidth(SheetShifts, "A", "O", 13)
}

func writeSummarySheet(f *excelize.File, emp employee.Employee, s payroll.PeriodSummary) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	rows := [][]any{
		{"Employee", emp.Name},
		{"National ID", emp.NationalID},
		{"Period", s.Period.From.String() + " - " + s.Period.To.String()},
		{"Hourly rate", emp.HourlyRate.Shekels()},
		{},
	}
	for _, line := range s.Bonuses {
		rows = append(rows, []any{line.Label, line.Amount.Shekels()})
	}
	rows = append(rows,
		[]any{"Regular pay", s.Totals.RegularPay.Shekels()},
		[]any{"Overtime pay", (s.Totals.OvertimeTier1Pay + s.Totals.OvertimeTier2Pay).Shekels()},
		[]any{"Bonus pay", s.Totals.BonusPay.Shekels()},
		[]any{"Total pay", s.Totals.TotalPay.Shekels()},
	)
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &r); err != nil {
			return err
		}
	}
	if len(s.Excluded) > 0 {
		start := len(rows) + 2
		cell, _ := excelize.CoordinatesToCellName(1, start)
		if err := f.SetCellValue(SheetSummary, cell, "Excluded shifts"); err != nil {
			return err
		}
		for i, ex := range s.Excluded {
			cell, _ := excelize.CoordinatesToCellName(1, start+1+i)
			r := []any{ex.ShiftID, string(ex.Reason), ex.Detail}
			if err := f.SetSheetRow(SheetSummary, cell, &r); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(SheetSummary, "A", "A", 20)
}
