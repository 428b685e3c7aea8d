package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kpreslar/connectrix/internal/logging"
)

var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:   "connectrix",
	Short: "Integration connectivity testing service",
	Long: `connectrix manages authenticated connections to third-party API
integrations: it builds request credentials from stored secrets, runs live
connectivity tests against providers, and handles OAuth2 token renewal.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logging.FromEnv())
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logging.Sync(logger)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
