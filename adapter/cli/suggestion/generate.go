package suggestion

import (
	"fmt"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Analyse employees and refresh suggestions",
	Long: `Analyse every active employee and keep at most one pending
suggestion per employee.

Examples:
  calltracker suggestions generate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		pending, err := app.Engine.GenerateSuggestions(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to generate suggestions: %w", err)
		}

		if len(pending) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No calls to suggest. Everyone is up to date.")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Pending suggestions (%d):\n", len(pending))
		for _, s := range pending {
			printSuggestion(cmd.OutOrStdout(), app, s)
		}
		return nil
	},
}
