package call

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Cmd is the calls command group
var Cmd = &cobra.Command{
	Use:     "calls",
	Aliases: []string{"call"},
	Short:   "Check the call calendar",
	Long:    `Find free slots, validate proposed times, and list calendar conflicts.`,
}

func init() {
	Cmd.AddCommand(conflictsCmd)
	Cmd.AddCommand(slotCmd)
	Cmd.AddCommand(checkCmd)
	Cmd.AddCommand(exportCmd)
}

func parseAt(app *cli.App, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("--at is required")
	}
	t, err := app.ParseTime(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format, use RFC3339 or \"YYYY-MM-DD HH:MM\": %w", err)
	}
	return t, nil
}

func parseExclude(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid call ID %q: %w", value, err)
	}
	return id, nil
}
