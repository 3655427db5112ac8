package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootFlags holds the daemon's process-wide configuration, populated from
// flags with environment-variable fallback per SPEC_FULL.md §10.
type rootFlags struct {
	dataRoot     string
	safeRoot     string
	listenAddr   string
	pollInterval string
	storeDriver  string
	storeDSN     string
	logLevel     string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "overseerd",
		Short:         "overseerd runs the DAG orchestration engine's supervisor and HTTP control plane",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.dataRoot, "data-root", envOr("OVERSEERD_DATA_ROOT", "./data"), "journal data directory")
	cmd.Flags().StringVar(&flags.safeRoot, "safe-root", envOr("OVERSEERD_SAFE_ROOT", "./examples/sample_repo"), "sandboxed repo root for file/test/security capabilities")
	cmd.Flags().StringVar(&flags.listenAddr, "listen", envOr("OVERSEERD_LISTEN", ":8080"), "HTTP control plane listen address")
	cmd.Flags().StringVar(&flags.pollInterval, "poll-interval", envOr("OVERSEERD_POLL_INTERVAL", "500ms"), "supervisor pending-queue poll interval")
	cmd.Flags().StringVar(&flags.storeDriver, "store-driver", envOr("OVERSEERD_STORE_DRIVER", "memory"), "run store backend: memory, sqlite, or mysql")
	cmd.Flags().StringVar(&flags.storeDSN, "store-dsn", envOr("OVERSEERD_STORE_DSN", ""), "sqlite file path or mysql DSN (ignored for memory)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", envOr("OVERSEERD_LOG_LEVEL", "info"), "logrus level")

	return cmd
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
