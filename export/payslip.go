package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/warp/shift-payroll/employee"
	"github.com/warp/shift-payroll/money"
	"github.com/warp/shift-payroll/payroll"
)

// WritePayslip renders a one-page A4 payslip. The core PDF fonts have no
// shekel sign, so amounts are suffixed with ILS.
func WritePayslip(w io.Writer, emp employee.Employee, s payroll.PeriodSummary) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Payslip "+s.Period.String(), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr("Employee: "+emp.Name))
	pdf.Ln(6)
	if emp.NationalID != "" {
		pdf.Cell(0, 7, "National ID: "+emp.NationalID)
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s to %s", s.Period.From, s.Period.To))
	pdf.Ln(6)
	pdf.Cell(0, 7, "Hourly rate: "+pdfAmount(emp.HourlyRate))
	pdf.Ln(10)

	line := func(label, minutes string, amount money.Agorot, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 11)
		pdf.CellFormat(90, 7, tr(label), "B", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, minutes, "B", 0, "R", false, 0, "")
		pdf.CellFormat(50, 7, pdfAmount(amount), "B", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(90, 7, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Hours", "B", 0, "R", false, 0, "")
	pdf.CellFormat(50, 7, "Amount", "B", 1, "R", false, 0, "")

	for _, l := range PayslipLines(s) {
		line(l.Label, hours(l.Minutes), l.Pay, false)
	}
	for _, b := range s.Bonuses {
		if b.Amount.IsZero() {
			continue
		}
		line(b.Label, "", b.Amount, false)
	}
	line("Total", hours(s.Totals.WorkedMinutes), s.Totals.TotalPay, true)

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("%d shifts paid, %d excluded", len(s.Shifts), len(s.Excluded)))

	return pdf.Output(w)
}

// PayslipLine is one hourly line of a payslip: every shift line carrying the
// same label, summed.
type PayslipLine struct {
	Label   string
	Minutes int
	Pay     money.Agorot
}

// PayslipLines groups the tier lines of all paid shifts by label, in the
// order labels first appear. Lines with no minutes and no pay are dropped.
func PayslipLines(s payroll.PeriodSummary) []PayslipLine {
	var out []PayslipLine
	index := map[string]int{}
	for _, sh := range s.Shifts {
		for _, l := range sh.Lines {
			if l.Minutes == 0 && l.Pay.IsZero() {
				continue
			}
			i, ok := index[l.Label]
			if !ok {
				i = len(out)
				index[l.Label] = i
				out = append(out, PayslipLine{Label: l.Label})
			}
			out[i].Minutes += l.Minutes
			out[i].Pay += l.Pay
		}
	}
	return out
}

func pdfAmount(a money.Agorot) string {
	return a.Decimal().Shift(-2).StringFixed(2) + " ILS"
}

func hours(minutes int) string {
	return strconv.FormatFloat(float64(minutes)/60, 'f', 2, 64)
}
