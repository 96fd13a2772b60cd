package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/security"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import employees and calls from a JSON seed",
	Long: `Import employees and their call history from a JSON seed file.

Calls reference employees by "key", or by name when no key is given.
Nothing is written if any record is invalid.

Examples:
  calltracker import seed.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		f, err := security.OpenRegularFile(args[0])
		if err != nil {
			return fmt.Errorf("open seed: %w", err)
		}
		defer f.Close()

		result, err := app.Importer.Import(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d employees and %d calls.\n", result.Employees, result.Calls)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
