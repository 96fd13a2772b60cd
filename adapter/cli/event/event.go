package event

import "github.com/spf13/cobra"

// Cmd is the events command group.
var Cmd = &cobra.Command{
	Use:   "events",
	Short: "Manage company events",
	Long:  `Record upcoming company events that may call for 1:1 calls.`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(listCmd)
}
