package call

import (
	"fmt"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	"github.com/spf13/cobra"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List groups of calls that break the minimum gap",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		groups, err := app.Detector.DetectAllConflicts(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to detect conflicts: %w", err)
		}

		if len(groups) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No conflicts.")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Conflict groups (%d):\n", len(groups))
		for i, g := range groups {
			fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s - %s  (%d calls)\n",
				i+1,
				app.FormatTime(g.Start),
				g.End.In(app.Location).Format("15:04"),
				g.Size(),
			)
			for _, id := range g.CallIDs {
				fmt.Fprintf(cmd.OutOrStdout(), "     - %s\n", id)
			}
		}
		return nil
	},
}
