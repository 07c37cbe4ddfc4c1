package dayend

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dawnstudy/attendance/internal/app"
	"github.com/dawnstudy/attendance/internal/conf"
)

// Command creates the command running the end-of-day reassessment.
func Command(settings *conf.Settings) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "dayend",
		Short: "Settle provisional statuses and correct the day summary",
		Long: `Move ongoing and late members to their final status using the complete
submission list, delete the stale summary message and edit the current one.
Without --day the target is today minus jobs.dayend_offset_days.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.With(cmd.Context(), settings, func(ctx context.Context, a *app.App) error {
				target, err := app.ParseDay(day, a.Jobs.Today(), -settings.Jobs.DayEndOffsetDays)
				if err != nil {
					return err
				}
				return app.PrintResult(cmd.OutOrStdout(), a.Jobs.DayEndReassessment(ctx, target))
			})
		},
	}

	if err := setupFlags(cmd, &day); err != nil {
		panic(err)
	}
	return cmd
}

func setupFlags(cmd *cobra.Command, day *string) error {
	cmd.Flags().StringVar(day, "day", "", "Day to reassess (YYYY-MM-DD)")
	cmd.Flags().Int("offset", 1, "Days before today to reassess when --day is not given")

	if err := viper.BindPFlag("jobs.dayend_offset_days", cmd.Flags().Lookup("offset")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
