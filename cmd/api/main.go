// Package main provides the entry point for the mealswap API server
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/alchemorsel/mealswap/internal/infrastructure/container"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath      string
		shutdownTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:           "mealswap-api",
		Short:         "Serve the meal swap recommendation API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, shutdownTimeout)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (default: ./config.yaml, ./config/config.yaml, /etc/mealswap/config.yaml)")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "time allowed for graceful shutdown")
	return cmd
}

func run(ctx context.Context, configPath string, shutdownTimeout time.Duration) error {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(container.ConfigPath(configPath)),
		container.Module,
	)
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, app.StartTimeout())
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	var exitCode int
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		exitCode = sig.ExitCode
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop application gracefully: %w", err)
	}

	if exitCode != 0 {
		return fmt.Errorf("application exited with code %d", exitCode)
	}
	return nil
}
