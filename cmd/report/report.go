package report

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dawnstudy/attendance/internal/app"
	"github.com/dawnstudy/attendance/internal/conf"
)

// Command creates the command building the weekly report.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		day      string
		announce bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate the Monday to Friday week containing a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.With(cmd.Context(), settings, func(ctx context.Context, a *app.App) error {
				target, err := app.ParseDay(day, a.Jobs.Today(), 0)
				if err != nil {
					return err
				}
				return app.PrintResult(cmd.OutOrStdout(), a.Jobs.WeeklyReport(ctx, target, announce))
			})
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Any day of the week to report (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&announce, "announce", false, "Post the report to the chat channel")
	return cmd
}
