package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dawnstudy/attendance/cmd"
	"github.com/dawnstudy/attendance/internal/conf"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	settings := &conf.Settings{}
	rootCmd := cmd.RootCommand(settings)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
