package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/oracleview/internal/app"
)

var serveMode string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the question watcher",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveMode != "" {
			cfg.Mode = serveMode
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		logger.Info("oracleview starting",
			slog.String("mode", cfg.Mode),
			slog.String("config", configPath),
		)

		application := app.New(cfg, logger)
		defer application.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		logger.Info("oracleview stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveMode, "mode", "", "override the configured mode (server, watcher, full)")
}
