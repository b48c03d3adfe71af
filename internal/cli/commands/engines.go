package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lakescan-io/lakescan/pkg/warehouse"
)

// NewEnginesCommand creates the engines command.
func NewEnginesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List supported query engine types",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range warehouse.ListEngines() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
