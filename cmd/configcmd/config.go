package configcmd

import (
	"github.com/spf13/cobra"

	"github.com/dawnstudy/attendance/internal/conf"
)

// Command creates the configuration inspection commands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return conf.WriteYAML(cmd.OutOrStdout(), settings)
		},
	})
	return cmd
}
