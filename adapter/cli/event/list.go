package event

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List company events",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		events := app.Engine.CompanyEvents(cmd.Context())
		if len(events) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No company events. Add one with: calltracker events add \"Title\" --date YYYY-MM-DD")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Company events (%d):\n", len(events))
		for _, e := range events {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", e.Title())
			fmt.Fprintf(cmd.OutOrStdout(), "    ID: %s\n", e.ID())
			fmt.Fprintf(cmd.OutOrStdout(), "    Type: %s\n", e.Type())
			fmt.Fprintf(cmd.OutOrStdout(), "    Date: %s\n", app.FormatTime(e.Date()))
			fmt.Fprintf(cmd.OutOrStdout(), "    Impacts scheduling: %t\n", e.ImpactsScheduling())
			if deps := e.AffectedDepartments(); len(deps) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "    Departments: %s\n", strings.Join(deps, ", "))
			}
			if n := len(e.AffectedEmployees()); n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "    Employees: %d\n", n)
			}
		}
		return nil
	},
}
