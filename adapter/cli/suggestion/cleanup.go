package suggestion

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	"github.com/spf13/cobra"
)

var cleanupOlderThan time.Duration

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete old accepted and dismissed suggestions",
	Long: `Delete accepted and dismissed suggestions older than the retention
period. Pending suggestions are kept.

Examples:
  calltracker suggestions cleanup
  calltracker suggestions cleanup --older-than 168h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		olderThan := cleanupOlderThan
		if olderThan <= 0 {
			olderThan = app.SuggestionRetention
		}

		removed, err := app.Engine.CleanupSuggestions(cmd.Context(), olderThan)
		if err != nil {
			return fmt.Errorf("failed to clean up suggestions: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d suggestions.\n", removed)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().DurationVar(&cleanupOlderThan, "older-than", 0, "age threshold (default: configured retention)")
}
