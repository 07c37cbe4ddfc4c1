package submit

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dawnstudy/attendance/internal/app"
	"github.com/dawnstudy/attendance/internal/conf"
)

// Command creates the command recording a solved problem.
func Command(settings *conf.Settings) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "submit <github-login> <problem-id>",
		Short: "Record a solved problem for a member",
		Long: `Append a problem to the member's submissions for the day. The login is
matched case-insensitively against the roster and the problem must be
part of the day's problem set. Recording the same problem twice is a no-op.`,
		Example: "  attendance submit KII1ua 1000\n  attendance submit kslvy 01001 --day 2025-06-02",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.With(cmd.Context(), settings, func(ctx context.Context, a *app.App) error {
				target, err := app.ParseDay(day, a.Jobs.Today(), 0)
				if err != nil {
					return err
				}
				return app.PrintResult(cmd.OutOrStdout(), a.Jobs.RecordSubmission(ctx, target, args[0], args[1]))
			})
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Day of the submission (YYYY-MM-DD, default today)")
	return cmd
}
