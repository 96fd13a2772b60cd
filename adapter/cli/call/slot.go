package call

import (
	"fmt"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	"github.com/spf13/cobra"
)

var (
	slotAt      string
	slotExclude string
)

var slotCmd = &cobra.Command{
	Use:   "slot",
	Short: "Find the first free slot at or after a time",
	Long: `Find the first start time at or after --at that keeps the minimum
gap from every booked call and falls inside business hours.

Examples:
  calltracker calls slot --at 2025-03-10T10:00:00+01:00
  calltracker calls slot --at "2025-03-10 10:00"`,
	Aliases: []string{"free"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		at, err := parseAt(app, slotAt)
		if err != nil {
			return err
		}
		exclude, err := parseExclude(slotExclude)
		if err != nil {
			return err
		}

		slot, err := app.Detector.FindAvailableSlot(cmd.Context(), at, exclude)
		if err != nil {
			return fmt.Errorf("failed to find slot: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "First available slot: %s\n", app.FormatTime(slot))
		return nil
	},
}

func init() {
	slotCmd.Flags().StringVar(&slotAt, "at", "", "earliest start time")
	slotCmd.Flags().StringVar(&slotExclude, "exclude", "", "call ID to ignore, e.g. when rescheduling it")
}
