package suggestion

import (
	"fmt"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	"github.com/spf13/cobra"
)

var dismissReason string

var dismissCmd = &cobra.Command{
	Use:   "dismiss <id>",
	Short: "Dismiss a suggestion",
	Long: `Dismiss a suggestion with an optional reason.

Examples:
  calltracker suggestions dismiss 3f2c... --reason "già sentito ieri"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		if err := app.Engine.DismissSuggestion(cmd.Context(), id, dismissReason); err != nil {
			return fmt.Errorf("failed to dismiss suggestion: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Suggestion %s dismissed.\n", id)
		return nil
	},
}

func init() {
	dismissCmd.Flags().StringVarP(&dismissReason, "reason", "r", "", "why the suggestion is dismissed")
}
