package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newSubmitCmd(flags *rootFlags) *cobra.Command {
	var graph string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new run for a registered graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(map[string]any{"graph": graph, "inputs": map[string]any{}})
			if err != nil {
				return err
			}

			resp, err := httpClient.Post(flags.serverAddr+"/runs", "application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var out map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return err
			}
			fmt.Printf("run_id=%v status=%v\n", out["run_id"], out["status"])
			return nil
		},
	}

	cmd.Flags().StringVar(&graph, "graph", "git-to-prod-multi", "registered graph name to run")
	return cmd
}

func newStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status <run-id>",
		Short: "Report a run's current status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := httpClient.Get(flags.serverAddr + "/runs/" + args[0])
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				var out map[string]string
				_ = json.NewDecoder(resp.Body).Decode(&out)
				return fmt.Errorf("overseerd: %s", out["error"])
			}

			var out map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return err
			}
			fmt.Printf("status=%v\n", out["status"])
			return nil
		},
	}
}

func newEventsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "events <run-id>",
		Short: "Print a run's event history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := httpClient.Get(flags.serverAddr + "/runs/" + args[0] + "/events")
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var events []map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
				return err
			}
			for _, e := range events {
				fmt.Printf("%v\t%v\t%v\n", e["step"], e["type"], e["data"])
			}
			return nil
		},
	}
}

func newReplayCmd(flags *rootFlags) *cobra.Command {
	var fromStep string

	cmd := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Replay a run from a given step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(map[string]any{"from_step": fromStep})
			if err != nil {
				return err
			}

			resp, err := httpClient.Post(flags.serverAddr+"/runs/"+args[0]+"/replay", "application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var out map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return err
			}
			fmt.Printf("run_id=%v\n", out["run_id"])
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStep, "from-step", "", "step name to replay from")
	cmd.MarkFlagRequired("from-step") //nolint:errcheck
	return cmd
}
