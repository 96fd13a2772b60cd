package event

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	"github.com/felixgeelhaar/calltracker/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	addType        string
	addDate        string
	addImpacts     bool
	addDepartments []string
	addEmployees   []string
	addDescription string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a company event",
	Long: `Add a company event. Events that impact scheduling raise a trigger
for affected employees during the 30 days before they happen.

Types: review_cycle, budget_planning, restructuring, training, other

Examples:
  calltracker events add "Riorganizzazione vendite" --type restructuring \
    --date 2025-04-01 --impacts --department Sales`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		date, err := app.ParseTime(addDate)
		if err != nil {
			date, err = app.ParseTime(addDate + " 09:00")
		}
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD or RFC3339: %w", err)
		}

		employees := make([]uuid.UUID, 0, len(addEmployees))
		for _, raw := range addEmployees {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid employee ID %q: %w", raw, err)
			}
			employees = append(employees, id)
		}

		event, err := app.Engine.AddCompanyEvent(cmd.Context(), domain.CompanyEventInput{
			Title:               args[0],
			Type:                domain.CompanyEventType(strings.ToLower(addType)),
			Date:                date,
			ImpactsScheduling:   addImpacts,
			AffectedEmployees:   employees,
			AffectedDepartments: addDepartments,
			Description:         addDescription,
		})
		if err != nil {
			return fmt.Errorf("failed to add event: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Event added: %s (%s)\n", event.Title(), event.ID())
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addType, "type", "t", string(domain.EventOther), "event type")
	addCmd.Flags().StringVarP(&addDate, "date", "d", "", "event date (YYYY-MM-DD or RFC3339)")
	addCmd.Flags().BoolVar(&addImpacts, "impacts", false, "event impacts call scheduling")
	addCmd.Flags().StringSliceVar(&addDepartments, "department", nil, "affected department (repeatable)")
	addCmd.Flags().StringSliceVar(&addEmployees, "employee", nil, "affected employee ID (repeatable)")
	addCmd.Flags().StringVar(&addDescription, "description", "", "free-text description")
	_ = addCmd.MarkFlagRequired("date")
}
