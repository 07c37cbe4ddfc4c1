package midday

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dawnstudy/attendance/internal/app"
	"github.com/dawnstudy/attendance/internal/conf"
)

// Command creates the command running the midday check.
func Command(settings *conf.Settings) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "midday",
		Short: "Classify every tracked member and post the day summary",
		Long: `Assign a status to every tracked member from the join time and the
submissions recorded so far, then post the summary message. Running it
again for the same day posts a new message and keeps the previous one for
the end-of-day cleanup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.With(cmd.Context(), settings, func(ctx context.Context, a *app.App) error {
				target, err := app.ParseDay(day, a.Jobs.Today(), 0)
				if err != nil {
					return err
				}
				return app.PrintResult(cmd.OutOrStdout(), a.Jobs.MiddayCheck(ctx, target))
			})
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Day to check (YYYY-MM-DD, default today)")
	return cmd
}
