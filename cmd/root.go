package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "facegate",
	Short: "Face-encoding access control for door readers",
	Long: `Facegate matches face encodings presented at door readers against an
enrolled identity directory, decides IDENTIFIED / VISITOR / DENIED and records
every decision in an append-only audit log.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadRuntime loads and validates the configuration and installs the process
// logger as the slog default. Callers must run the returned cleanup.
func loadRuntime() (*config.Config, *slog.Logger, func(), error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLog := config.SetupLogger(cfg.Log.File, cfg.Log.Level)
	slog.SetDefault(logger)

	cleanup := func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
		}
	}
	return cfg, logger, cleanup, nil
}
