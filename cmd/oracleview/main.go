// Command oracleview is the backend entry point for the oracle question and
// dispute dashboard. It loads configuration, validates it, sets up logging
// and dispatches to one of the subcommands.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/oracleview/internal/config"
)

const appName = "oracleview"

var (
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Reality.eth question and Kleros dispute dashboard",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config %s: %w", configPath, err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// Only serve writes logs to stdout; the other commands print results
		// there.
		var out io.Writer = os.Stderr
		if cmd.Name() == serveCmd.Name() {
			out = os.Stdout
		}
		logger = newLogger(out, cfg.LogLevel)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(disputeIDCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(encryptKeyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("command failed", slog.String("error", err.Error()))
		}
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// newLogger returns a JSON logger at the named level. Unknown levels fall
// back to info.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
