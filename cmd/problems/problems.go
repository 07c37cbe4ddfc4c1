package problems

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dawnstudy/attendance/internal/app"
	"github.com/dawnstudy/attendance/internal/conf"
	"github.com/dawnstudy/attendance/internal/daycheck"
)

type problemSet struct {
	Day      string   `json:"day"`
	Problems []string `json:"problems"`
}

// Command creates the problem set administration commands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "problems",
		Short: "Manage the daily problem sets",
	}
	cmd.AddCommand(setCommand(settings), showCommand(settings))
	return cmd
}

func setCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:     "set <day> <problem-id>...",
		Short:   "Replace the problem set of a day",
		Example: "  attendance problems set 2025-06-02 1000 1001",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.With(cmd.Context(), settings, func(ctx context.Context, a *app.App) error {
				day, err := app.ParseDay(args[0], a.Jobs.Today(), 0)
				if err != nil {
					return err
				}
				ids := make([]string, 0, len(args)-1)
				for _, raw := range args[1:] {
					id, err := daycheck.NormalizeProblemID(raw)
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}
				if err := a.Store.PutProblemSet(ctx, day, ids); err != nil {
					return err
				}
				return app.PrintJSON(cmd.OutOrStdout(), problemSet{Day: day.String(), Problems: ids})
			})
		},
	}
}

func showCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "show [day]",
		Short: "Print the problem set of a day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = args[0]
			}
			return app.With(cmd.Context(), settings, func(ctx context.Context, a *app.App) error {
				day, err := app.ParseDay(raw, a.Jobs.Today(), 0)
				if err != nil {
					return err
				}
				ids, err := a.Store.GetProblemSet(ctx, day)
				if err != nil {
					return err
				}
				return app.PrintJSON(cmd.OutOrStdout(), problemSet{Day: day.String(), Problems: ids})
			})
		},
	}
}
