package suggestion

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	"github.com/felixgeelhaar/calltracker/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Cmd is the suggestions command group
var Cmd = &cobra.Command{
	Use:     "suggestions",
	Aliases: []string{"suggestion", "sg"},
	Short:   "Generate and act on call suggestions",
	Long:    `Analyse employees, review suggested calls, and accept or dismiss them.`,
}

func init() {
	Cmd.AddCommand(generateCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(acceptCmd)
	Cmd.AddCommand(dismissCmd)
	Cmd.AddCommand(cleanupCmd)
}

func parseID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid suggestion ID %q: %w", arg, err)
	}
	return id, nil
}

func printSuggestion(w io.Writer, app *cli.App, s *domain.Suggestion) {
	fmt.Fprintf(w, "  [%s] %s\n", strings.ToUpper(string(s.Priority())), s.EmployeeName())
	fmt.Fprintf(w, "    ID: %s\n", s.ID())
	fmt.Fprintf(w, "    Suggested: %s\n", app.FormatTime(s.SuggestedDate()))
	fmt.Fprintf(w, "    Confidence: %.0f%%\n", s.Confidence()*100)
	fmt.Fprintf(w, "    Status: %s\n", s.Status())
	for _, line := range s.Reasoning() {
		fmt.Fprintf(w, "    %s\n", line)
	}
	if s.DismissReason() != "" {
		fmt.Fprintf(w, "    Dismissed: %s\n", s.DismissReason())
	}
}
