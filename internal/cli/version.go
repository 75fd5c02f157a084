package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"portfolio/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "autopost %s\n", version.String())
			return nil
		},
	}
}
