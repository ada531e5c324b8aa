/*
Package cli implements payctl, the offline payroll calculator.

PURPOSE:
  Runs the payroll engine against JSON files without a server or database.
  Useful for checking a rule change or a disputed payslip by hand.

COMMANDS:
  duration START END      Minutes between two HH:MM times (wraps midnight)
  parse-time TEXT         Normalize a wall-clock time
  shekel AMOUNT           Validate an amount and show it in agorot
  national-id ID          Check an Israeli identity number
  calc                    Price a period of shifts from JSON files

OUTPUT:
  Tables are rendered with lipgloss. calc also supports --json and --xlsx.

SEE ALSO:
  - cmd/payctl/main.go: Entry point
  - payroll/period.go: CalculatePeriod
*/
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/shift-payroll/money"
)

// Options are settings shared by all commands.
type Options struct {
	Bounds money.Bounds
}

// NewRootCmd creates the top-level "payctl" command and registers all
// subcommands.
func NewRootCmd() *cobra.Command {
	opts := &Options{Bounds: money.DefaultBounds}

	root := &cobra.Command{
		Use:           "payctl",
		Short:         "Shift payroll calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Bounds.Validate(); err != nil {
				return fmt.Errorf("--max-amount: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().Float64Var(&opts.Bounds.Max, "max-amount", money.DefaultBounds.Max, "Largest accepted shekel amount")

	root.AddCommand(
		newDurationCmd(),
		newParseTimeCmd(),
		newShekelCmd(opts),
		newNationalIDCmd(),
		newCalcCmd(opts),
	)

	return root
}
