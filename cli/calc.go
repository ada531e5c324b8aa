package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/employee"
	"github.com/warp/shift-payroll/export"
	"github.com/warp/shift-payroll/money"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/shifttime"
)

// shiftEntry is one element of the --shifts file. Either startTime (and
// endTime) or date with start/end wall-clock times is set.
type shiftEntry struct {
	ID         string     `json:"id"`
	StartTime  *time.Time `json:"startTime,omitempty"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	Date       string     `json:"date,omitempty"`
	Start      string     `json:"start,omitempty"`
	End        string     `json:"end,omitempty"`
	WorkTypeID string     `json:"workTypeId,omitempty"`
}

func (e shiftEntry) shift(loc *time.Location) (payroll.Shift, error) {
	s := payroll.Shift{ID: e.ID, WorkTypeID: e.WorkTypeID}
	if e.Date == "" {
		if e.StartTime == nil {
			return s, fmt.Errorf("shift %q: startTime or date is required", e.ID)
		}
		s.Start, s.End = *e.StartTime, e.EndTime
		return s, nil
	}

	d, err := calendar.ParseDate(e.Date)
	if err != nil {
		return s, fmt.Errorf("shift %q: %w", e.ID, err)
	}
	start, err := shifttime.ParseTime(e.Start)
	if err != nil {
		return s, fmt.Errorf("shift %q: start: %w", e.ID, err)
	}
	end, err := shifttime.ParseTime(e.End)
	if err != nil {
		return s, fmt.Errorf("shift %q: end: %w", e.ID, err)
	}
	from, to, err := shifttime.ShiftBounds(d.Time(), start, end, loc)
	if err != nil {
		return s, fmt.Errorf("shift %q: %w", e.ID, err)
	}
	s.Start, s.End, s.IsRetro = from, &to, true
	return s, nil
}

type calcFlags struct {
	shifts   string
	rule     string
	holidays string
	bonuses  string
	paid     []string
	rate     float64
	from     string
	to       string
	month    string
	tz       string
	sabbath  bool
	asJSON   bool
	xlsx     string
}

func newCalcCmd(opts *Options) *cobra.Command {
	var f calcFlags

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Price a period of shifts from JSON files",
		Example: `  payctl calc --shifts shifts.json --rate 42.5 --month 2025-01
  payctl calc --shifts shifts.json --rule rule.json --holidays holidays.json \
      --bonuses bonuses.json --rate 40 --from 2025-01-01 --to 2025-01-15 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, loc, err := runCalc(cmd.Context(), f, opts.Bounds)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if f.xlsx != "" {
				if err := writeWorkbookFile(f.xlsx, f.rate, opts.Bounds, summary, loc); err != nil {
					return err
				}
			}
			if f.asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			fmt.Fprint(out, formatSummary(summary))
			return nil
		},
	}

	cmd.Flags().StringVar(&f.shifts, "shifts", "", "JSON file with the shifts (required)")
	cmd.Flags().StringVar(&f.rule, "rule", "", "JSON file with the work rule (default rule when omitted)")
	cmd.Flags().StringVar(&f.holidays, "holidays", "", `JSON file mapping "YYYY-MM-DD" to day flags`)
	cmd.Flags().StringVar(&f.bonuses, "bonuses", "", "JSON file with bonuses (amounts in agorot)")
	cmd.Flags().StringSliceVar(&f.paid, "paid", nil, "One-time bonus IDs already paid by an earlier period")
	cmd.Flags().Float64Var(&f.rate, "rate", 0, "Hourly rate in shekels (required)")
	cmd.Flags().StringVar(&f.from, "from", "", "First day of the period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "Last day of the period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.month, "month", "", "Whole month period (YYYY-MM), instead of --from/--to")
	cmd.Flags().StringVar(&f.tz, "tz", "Asia/Jerusalem", "IANA time zone used to date shifts")
	cmd.Flags().BoolVar(&f.sabbath, "sabbath", true, "Treat Saturdays as rest days and Fridays as short days")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print the full summary as JSON")
	cmd.Flags().StringVar(&f.xlsx, "xlsx", "", "Also write the payroll workbook to this file")
	cmd.MarkFlagRequired("shifts")
	cmd.MarkFlagRequired("rate")

	return cmd
}

func runCalc(ctx context.Context, f calcFlags, bounds money.Bounds) (payroll.PeriodSummary, *time.Location, error) {
	loc, err := time.LoadLocation(f.tz)
	if err != nil {
		return payroll.PeriodSummary{}, nil, fmt.Errorf("--tz: %w", err)
	}
	rate, err := money.Validate(f.rate, bounds)
	if err != nil {
		return payroll.PeriodSummary{}, nil, fmt.Errorf("--rate: %w", err)
	}
	period, err := periodFlags(f.month, f.from, f.to)
	if err != nil {
		return payroll.PeriodSummary{}, nil, err
	}

	var entries []shiftEntry
	if err := readJSON(f.shifts, &entries); err != nil {
		return payroll.PeriodSummary{}, nil, err
	}
	shifts := make([]payroll.Shift, 0, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			e.ID = "shift-" + strconv.Itoa(i+1)
		}
		s, err := e.shift(loc)
		if err != nil {
			return payroll.PeriodSummary{}, nil, err
		}
		shifts = append(shifts, s)
	}

	rule := payroll.DefaultWorkRule()
	if f.rule != "" {
		if err := readJSON(f.rule, &rule); err != nil {
			return payroll.PeriodSummary{}, nil, err
		}
	}

	static := calendar.NewStaticProvider()
	if f.holidays != "" {
		var days calendar.HolidayMap
		if err := readJSON(f.holidays, &days); err != nil {
			return payroll.PeriodSummary{}, nil, err
		}
		static.SetAll("", days)
	}
	var provider calendar.Provider = static
	if f.sabbath {
		provider = calendar.SabbathProvider{Next: static}
	}
	days, err := provider.Days(ctx, "", period)
	if err != nil {
		return payroll.PeriodSummary{}, nil, err
	}

	var bonuses []payroll.Bonus
	if f.bonuses != "" {
		if err := readJSON(f.bonuses, &bonuses); err != nil {
			return payroll.PeriodSummary{}, nil, err
		}
	}

	summary, err := payroll.CalculatePeriod(payroll.PeriodInput{
		EmployeeID:         "cli",
		Period:             period,
		Location:           loc,
		Shifts:             shifts,
		HourlyRate:         rate,
		Rules:              payroll.RuleSet{Organization: &rule},
		Holidays:           days,
		Bonuses:            bonuses,
		PaidOneTimeBonuses: f.paid,
		Bounds:             bounds,
	})
	return summary, loc, err
}

func periodFlags(month, from, to string) (calendar.Period, error) {
	if month != "" {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return calendar.Period{}, fmt.Errorf("--month %q: use YYYY-MM", month)
		}
		return calendar.MonthPeriod(t.Year(), t.Month()), nil
	}
	if from == "" || to == "" {
		return calendar.Period{}, errors.New("either --month or both --from and --to are required")
	}
	f, err := calendar.ParseDate(from)
	if err != nil {
		return calendar.Period{}, fmt.Errorf("--from: %w", err)
	}
	t, err := calendar.ParseDate(to)
	if err != nil {
		return calendar.Period{}, fmt.Errorf("--to: %w", err)
	}
	p := calendar.Period{From: f, To: t}
	return p, p.Validate()
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func writeWorkbookFile(path string, rate float64, bounds money.Bounds, s payroll.PeriodSummary, loc *time.Location) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	agorot, _ := money.Validate(rate, bounds)
	emp := employee.Employee{ID: "cli", Name: "payctl", HourlyRate: agorot}
	if err := export.WriteWorkbook(file, emp, s, loc); err != nil {
		return err
	}
	return file.Close()
}

// formatSummary renders the per-shift table followed by the totals.
func formatSummary(s payroll.PeriodSummary) string {
	headers := []string{"DATE", "SHIFT", "DAY", "WORKED", "REGULAR", "OT 1", "OT 2", "BONUS", "TOTAL"}
	rows := make([][]string, 0, len(s.Shifts))
	for _, sp := range s.Shifts {
		rows = append(rows, []string{
			sp.Date.String(),
			sp.ShiftID,
			sp.DayType.String(),
			shifttime.FormatMinutes(sp.WorkedMinutes),
			sp.RegularPay.String(),
			sp.OvertimeTier1Pay.String(),
			sp.OvertimeTier2Pay.String(),
			sp.BonusPay.String(),
			sp.TotalPay.String(),
		})
	}

	out := styleBold.Render("Period "+s.Period.From.String()+" to "+s.Period.To.String()) + "\n\n"
	out += renderTable(headers, rows, 3, 4, 5, 6, 7, 8)

	if len(s.Bonuses) > 0 {
		out += "\n"
		bonusRows := make([][]string, 0, len(s.Bonuses))
		for _, b := range s.Bonuses {
			bonusRows = append(bonusRows, []string{b.Label, string(b.Type), b.Amount.String()})
		}
		out += renderTable([]string{"BONUS", "TYPE", "AMOUNT"}, bonusRows, 2)
	}

	if len(s.Excluded) > 0 {
		out += "\n"
		exRows := make([][]string, 0, len(s.Excluded))
		for _, e := range s.Excluded {
			exRows = append(exRows, []string{e.ShiftID, string(e.Reason), e.Detail})
		}
		out += styleRed.Render("Excluded shifts") + "\n" + renderTable([]string{"SHIFT", "REASON", "DETAIL"}, exRows)
	}

	t := s.Totals
	out += "\n" + keyValues([][2]string{
		{"worked", shifttime.FormatMinutes(t.WorkedMinutes)},
		{"regular", t.RegularPay.String()},
		{"overtime", (t.OvertimeTier1Pay + t.OvertimeTier2Pay).String()},
		{"bonuses", t.BonusPay.String()},
		{"total", styleGreen.Render(t.TotalPay.String())},
	})
	return out
}
