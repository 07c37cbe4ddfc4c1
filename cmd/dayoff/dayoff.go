package dayoff

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dawnstudy/attendance/internal/app"
	"github.com/dawnstudy/attendance/internal/conf"
)

// Command creates the command marking a member off for a day.
func Command(settings *conf.Settings) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "dayoff <member-id>",
		Short: "Mark a member as off for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.With(cmd.Context(), settings, func(ctx context.Context, a *app.App) error {
				target, err := app.ParseDay(day, a.Jobs.Today(), 0)
				if err != nil {
					return err
				}
				return app.PrintResult(cmd.OutOrStdout(), a.Jobs.MarkDayOff(ctx, target, args[0]))
			})
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Day off (YYYY-MM-DD, default today)")
	return cmd
}
