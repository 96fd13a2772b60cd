package call

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	"github.com/felixgeelhaar/calltracker/internal/calls/infrastructure/icalendar"
	"github.com/spf13/cobra"
)

var (
	exportFrom   string
	exportDays   int
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export booked calls as an iCalendar feed",
	Long: `Export scheduled calls to ICS for Google Calendar, Outlook, or Apple Calendar.

Examples:
  calltracker calls export                       # Next 7 days to stdout
  calltracker calls export --days 30 -o hr.ics   # Next 30 days to a file
  calltracker calls export --from 2030-03-11`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		if exportDays <= 0 {
			return fmt.Errorf("--days must be positive")
		}

		from, err := exportStart(app, exportFrom)
		if err != nil {
			return err
		}
		to := from.AddDate(0, 0, exportDays)

		entries, err := gatherEntries(cmd, app, from, to)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No calls booked between %s and %s.\n",
				from.Format("2006-01-02"), to.AddDate(0, 0, -1).Format("2006-01-02"))
			return nil
		}

		var out io.Writer = cmd.OutOrStdout()
		if exportOutput != "" {
			f, err := os.OpenFile(exportOutput, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}
			defer f.Close()
			out = f
		}

		if err := icalendar.Encode(out, entries, time.Now()); err != nil {
			return err
		}
		if exportOutput != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d calls to %s\n", len(entries), exportOutput)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "first day to export, YYYY-MM-DD (default today)")
	exportCmd.Flags().IntVar(&exportDays, "days", 7, "number of days to export")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
}

func exportStart(app *cli.App, value string) (time.Time, error) {
	if value == "" {
		now := time.Now().In(app.Location)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, app.Location), nil
	}
	from, err := time.ParseInLocation("2006-01-02", value, app.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --from date, use YYYY-MM-DD: %w", err)
	}
	return from, nil
}

func gatherEntries(cmd *cobra.Command, app *cli.App, from, to time.Time) ([]icalendar.Entry, error) {
	calls, err := app.Calls.List(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}
	employees, err := app.Employees.List(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	type details struct{ name, department string }
	byID := make(map[string]details, len(employees))
	for _, e := range employees {
		byID[e.ID().String()] = details{e.Name(), e.Department()}
	}

	var entries []icalendar.Entry
	for _, c := range calls {
		if !c.IsOnCalendar() || c.ScheduledAt().Before(from) || !c.ScheduledAt().Before(to) {
			continue
		}
		d := byID[c.EmployeeID().String()]
		entries = append(entries, icalendar.Entry{Call: c, EmployeeName: d.name, Department: d.department})
	}
	return entries, nil
}
