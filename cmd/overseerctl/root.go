package main

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	serverAddr string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "overseerctl",
		Short:         "overseerctl talks to an overseerd control plane over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.serverAddr, "server", envOr("OVERSEERCTL_SERVER", "http://localhost:8080"), "overseerd HTTP address")

	cmd.AddCommand(newSubmitCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newEventsCmd(flags))
	cmd.AddCommand(newReplayCmd(flags))
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var httpClient = &http.Client{Timeout: 30 * time.Second}
