package suggestion

import (
	"fmt"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	"github.com/spf13/cobra"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List suggestions",
	Long: `List pending suggestions ordered by priority, then date.

Examples:
  calltracker suggestions list
  calltracker suggestions list --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		suggestions := app.Engine.PendingSuggestions(cmd.Context())
		if listAll {
			suggestions = app.Engine.Suggestions(cmd.Context())
		}

		if len(suggestions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No suggestions. Create some with: calltracker suggestions generate")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Suggestions (%d):\n", len(suggestions))
		for _, s := range suggestions {
			printSuggestion(cmd.OutOrStdout(), app, s)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include accepted and dismissed suggestions")
}
