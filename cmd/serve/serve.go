package serve

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dawnstudy/attendance/internal/app"
	"github.com/dawnstudy/attendance/internal/conf"
)

// Command creates the command running the HTTP intake and the presence
// subscriber until interrupted.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the presence feed subscriber",
		Long: `Serve the submission webhook, the job triggers used by external
schedulers and the admin endpoints, and keep the presence table in sync
with the MQTT feed. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.With(cmd.Context(), settings, func(ctx context.Context, a *app.App) error {
				return a.Serve(ctx)
			})
		},
	}

	if err := setupFlags(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("listen", "", "Listen address of the HTTP API")
	cmd.Flags().Bool("api", false, "Enable the HTTP API")
	cmd.Flags().Bool("mqtt", false, "Enable the MQTT presence subscriber")
	cmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on /metrics")

	bindings := map[string]string{
		"api.listen":      "listen",
		"api.enabled":     "api",
		"mqtt.enabled":    "mqtt",
		"metrics.enabled": "metrics",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flags: %w", err)
		}
	}
	return nil
}
