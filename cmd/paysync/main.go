package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"paysync-server/internal/config"
	"paysync-server/internal/logging"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "paysync",
		Short:         "Pull, normalize and store PayPal payment notifications",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadEnv() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewWithWriter(os.Stderr, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
