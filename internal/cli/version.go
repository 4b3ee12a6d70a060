package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokligence/tokligence-datastream/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "datastream %s\n", version.FullInfo())
		},
	}
}
