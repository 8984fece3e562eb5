package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eleven-am/tasks/pkg/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display Tasks version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.FullVersionInfo())
		},
	}
}
