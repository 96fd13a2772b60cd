package call

import (
	"fmt"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	"github.com/spf13/cobra"
)

var (
	checkAt      string
	checkExclude string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a proposed start time conflicts",
	Long: `Check a proposed start time against booked calls.

Examples:
  calltracker calls check --at "2025-03-10 10:40"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		at, err := parseAt(app, checkAt)
		if err != nil {
			return err
		}
		exclude, err := parseExclude(checkExclude)
		if err != nil {
			return err
		}

		check, err := app.Detector.HasConflict(cmd.Context(), at, exclude)
		if err != nil {
			return fmt.Errorf("failed to check conflicts: %w", err)
		}

		if !check.HasConflict {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is free.\n", app.FormatTime(at))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s conflicts with %d calls:\n", app.FormatTime(at), len(check.ConflictingCalls))
		for _, c := range check.ConflictingCalls {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s - %s  (call %s)\n",
				app.FormatTime(c.ScheduledAt()),
				c.EndsAt().In(app.Location).Format("15:04"),
				c.ID(),
			)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkAt, "at", "", "proposed start time")
	checkCmd.Flags().StringVar(&checkExclude, "exclude", "", "call ID to ignore, e.g. when rescheduling it")
}
