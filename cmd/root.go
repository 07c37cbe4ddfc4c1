// Package cmd holds the command line interface of the attendance service.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dawnstudy/attendance/cmd/checkin"
	"github.com/dawnstudy/attendance/cmd/configcmd"
	"github.com/dawnstudy/attendance/cmd/dayend"
	"github.com/dawnstudy/attendance/cmd/dayoff"
	"github.com/dawnstudy/attendance/cmd/midday"
	"github.com/dawnstudy/attendance/cmd/problems"
	"github.com/dawnstudy/attendance/cmd/report"
	"github.com/dawnstudy/attendance/cmd/serve"
	"github.com/dawnstudy/attendance/cmd/submit"
	"github.com/dawnstudy/attendance/cmd/version"
	"github.com/dawnstudy/attendance/internal/conf"
	"github.com/dawnstudy/attendance/internal/logger"
)

// RootCommand creates and returns the root command. settings is filled in
// before any subcommand runs.
func RootCommand(settings *conf.Settings) *cobra.Command {
	var (
		configFile string
		envFile    string
		central    *logger.CentralLogger
	)

	rootCmd := &cobra.Command{
		Use:          "attendance",
		Short:        "Attendance tracking for the morning study group",
		SilenceUsage: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, &configFile, &envFile); err != nil {
		panic(err)
	}

	versionCmd := version.Command()
	rootCmd.AddCommand(
		midday.Command(settings),
		dayend.Command(settings),
		checkin.Command(settings),
		submit.Command(settings),
		dayoff.Command(settings),
		problems.Command(settings),
		report.Command(settings),
		serve.Command(settings),
		configcmd.Command(settings),
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// The version command needs no configuration
		if cmd.Name() == versionCmd.Name() {
			return nil
		}

		if err := conf.LoadDotEnv(envFile); err != nil {
			return err
		}
		loaded, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		*settings = *loaded

		if settings.Debug {
			settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
			if settings.Logging.Console != nil {
				settings.Logging.Console.Level = string(logger.LogLevelDebug)
			}
		}
		central, err = logger.NewCentralLogger(&settings.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		logger.SetGlobal(central)
		return nil
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if central == nil {
			return nil
		}
		return central.Close()
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, configFile, envFile *string) error {
	rootCmd.PersistentFlags().StringVarP(configFile, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(envFile, "env-file", ".env", "Optional file with environment overrides")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
