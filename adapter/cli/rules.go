package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show scheduling rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduling rule presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		rules := app.Engine.Rules(cmd.Context())
		if len(rules) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No scheduling rules.")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Scheduling rules (%d):\n", len(rules))
		for _, r := range rules {
			state := "enabled"
			if !r.Enabled {
				state = "disabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s [%s]\n", r.Name, state)
			fmt.Fprintf(cmd.OutOrStdout(), "    ID: %s\n", r.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "    When: %s %s %g\n", r.Condition.Field, r.Condition.Operator, r.Condition.Value)
			fmt.Fprintf(cmd.OutOrStdout(), "    Priority: %s\n", r.Priority)
			if r.Description != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", r.Description)
			}
		}
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rootCmd.AddCommand(rulesCmd)
}
