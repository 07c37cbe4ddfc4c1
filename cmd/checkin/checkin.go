package checkin

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dawnstudy/attendance/internal/app"
	"github.com/dawnstudy/attendance/internal/conf"
)

// Command creates the command taking the presence snapshot.
func Command(settings *conf.Settings) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Record join times from the voice channel and post who is in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.With(cmd.Context(), settings, func(ctx context.Context, a *app.App) error {
				target, err := app.ParseDay(day, a.Jobs.Today(), 0)
				if err != nil {
					return err
				}
				return app.PrintResult(cmd.OutOrStdout(), a.Jobs.CheckIn(ctx, target))
			})
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Day to record (YYYY-MM-DD, default today)")
	return cmd
}
