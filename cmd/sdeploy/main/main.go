package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/arthur-debert/sdeploy/cmd/sdeploy"
	"github.com/arthur-debert/sdeploy/pkg/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := sdeploy.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		ui.NewConsole(os.Stderr, ui.FormatAuto).Failed(err)
		os.Exit(1)
	}
}
