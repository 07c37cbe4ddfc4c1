package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dawnstudy/attendance/internal/buildinfo"
)

// Command creates a new cobra.Command to print the build version.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of attendance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
			return err
		},
	}
}
