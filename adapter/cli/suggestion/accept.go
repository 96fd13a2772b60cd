package suggestion

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	callsDomain "github.com/felixgeelhaar/calltracker/internal/calls/domain"
	"github.com/spf13/cobra"
)

var acceptCmd = &cobra.Command{
	Use:   "accept <id>",
	Short: "Accept a suggestion and schedule the call",
	Long: `Accept a suggestion. The call is booked into the first slot that
keeps the minimum gap from other calls.

Examples:
  calltracker suggestions accept 3f2c...`,
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

		call, err := app.Engine.AcceptSuggestion(cmd.Context(), id)
		if errors.Is(err, callsDomain.ErrEmployeeNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "Employee no longer exists. Suggestion closed without scheduling a call.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to accept suggestion: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Call scheduled: %s\n", app.FormatTime(call.ScheduledAt()))
		fmt.Fprintf(cmd.OutOrStdout(), "  Call ID: %s\n", call.ID())
		fmt.Fprintf(cmd.OutOrStdout(), "  Duration: %d mins\n", int(call.Duration().Minutes()))
		return nil
	},
}
