// Package cmd implements the CLI commands for dashabr.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/peymanj-dashabr/dashabr/internal/config"
	"github.com/peymanj-dashabr/dashabr/internal/logging"
	"github.com/peymanj-dashabr/dashabr/internal/version"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	appLogger *slog.Logger
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "dashabr",
	Short:   "Adaptive bitrate MPEG-DASH client",
	Version: version.Short(),
	Long: `dashabr plays a DASH manifest end to end: it fetches the MPD, picks a
bitrate every segment using one of three adaptive strategies (basic,
sara, netflix), downloads through an optional CONNECT proxy, and feeds
a bounded playback buffer.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		appLogger = logging.New(config.LoggingConfig{Level: logLevel, Format: logFormat})
		slog.SetDefault(appLogger)
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml, $HOME/.dashabr, /etc/dashabr)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
}

// loadConfig builds a *config.Config by layering flags > env (DASHABR_*)
// > config file > built-in defaults, honoring any --config override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.Logging.Level = logLevel
	cfg.Logging.Format = logFormat
	return cfg, nil
}
