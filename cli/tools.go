package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/warp/shift-payroll/employee"
	"github.com/warp/shift-payroll/money"
	"github.com/warp/shift-payroll/shifttime"
)

func newDurationCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "duration START END",
		Short:   "Minutes worked between two HH:MM times",
		Example: "  payctl duration 22:00 06:30",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := shifttime.DurationMinutes(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), keyValues([][2]string{
				{"start", args[0]},
				{"end", args[1]},
				{"minutes", strconv.Itoa(minutes)},
				{"duration", shifttime.FormatMinutes(minutes)},
			}))
			return nil
		},
	}
}

func newParseTimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-time TEXT",
		Short: "Normalize a wall-clock time such as 7:5 to 07:05",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := shifttime.ParseTime(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), keyValues([][2]string{
				{"time", c.String()},
				{"minute of day", strconv.Itoa(c.MinuteOfDay())},
			}))
			return nil
		},
	}
}

func newShekelCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "shekel AMOUNT",
		Short: "Validate a shekel amount and show it in agorot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("amount %q is not a number", args[0])
			}
			a, err := money.Validate(v, opts.Bounds)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), keyValues([][2]string{
				{"agorot", strconv.FormatInt(int64(a), 10)},
				{"shekels", a.String()},
			}))
			return nil
		},
	}
}

func newNationalIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "national-id ID",
		Short: "Check an Israeli identity number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := employee.ValidateNationalID(args[0]); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), styleRed.Render("✗ "+args[0]))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styleGreen.Render("✓ "+args[0]))
			return nil
		},
	}
}
