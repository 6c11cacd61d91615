package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ermos/backupmanager/internal/constants"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", constants.ToolName, constants.Version)
		},
	}
}
