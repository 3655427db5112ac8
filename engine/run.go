package engine

import (
	"context"
	"fmt"

	"github.com/overseerhq/overseer/journal"
	"github.com/overseerhq/overseer/registry"
	"github.com/overseerhq/overseer/runstore"
)

// Runner executes a single pending run to completion: run_started,
// scheduler walk, run_completed or run_failed, and the matching runstore
// status transitions.
type Runner struct {
	registry  *registry.Registry
	journal   *journal.Journal
	store     runstore.Store
	scheduler *Scheduler
	metrics   *Metrics
}

// NewRunner wires a Runner's dependencies.
func NewRunner(reg *registry.Registry, jr *journal.Journal, store runstore.Store, scheduler *Scheduler, metrics *Metrics) *Runner {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Runner{registry: reg, journal: jr, store: store, scheduler: scheduler, metrics: metrics}
}

// ExecuteRun is spec.md §4.6/§4.7's execute_graph: flips the run to
// running, walks the graph, and records the terminal status. A scheduler
// error (always infrastructural) marks the run failed rather than
// propagating further — the supervisor keeps polling.
func (r *Runner) ExecuteRun(ctx context.Context, runID string) error {
	run, graph, err := r.Claim(ctx, runID)
	if err != nil {
		return err
	}
	return r.runClaimed(ctx, run, graph)
}

// Claim flips a pending run to running and emits run_started, returning the
// run and its registered graph. Splitting claim from execution lets the
// supervisor serialize claims (so a run is never picked up twice across
// consecutive polls) while still executing runs concurrently.
func (r *Runner) Claim(ctx context.Context, runID string) (registry.Run, registry.Graph, error) {
	run, err := r.store.Get(ctx, runID)
	if err != nil {
		return registry.Run{}, registry.Graph{}, fmt.Errorf("load run %q: %w", runID, err)
	}

	graph, ok := r.registry.Graph(run.Graph)
	if !ok {
		return registry.Run{}, registry.Graph{}, &registry.ValidationError{Subject: "graph", Name: run.Graph, Reason: "not registered"}
	}

	if err := r.store.UpdateStatus(ctx, runID, registry.StatusRunning); err != nil {
		return registry.Run{}, registry.Graph{}, fmt.Errorf("mark running: %w", err)
	}
	if _, err := r.journal.Emit(ctx, runID, "system", journal.TypeRunStarted, map[string]any{"graph": graph.Name}); err != nil {
		return registry.Run{}, registry.Graph{}, fmt.Errorf("emit run_started: %w", err)
	}
	run.Status = registry.StatusRunning
	return run, graph, nil
}

// runClaimed executes an already-claimed run's scheduler walk and records
// the terminal status.
func (r *Runner) runClaimed(ctx context.Context, run registry.Run, graph registry.Graph) error {
	runID := run.ID
	r.metrics.RunsStarted.Inc()
	completed, runErr := r.scheduler.ExecuteGraph(ctx, run, graph)

	if runErr != nil {
		_ = r.store.UpdateStatus(ctx, runID, registry.StatusFailed)
		_, _ = r.journal.Emit(ctx, runID, "system", journal.TypeRunFailed, map[string]any{"error": runErr.Error()})
		r.metrics.RunsFailed.Inc()
		return nil
	}

	if err := r.store.UpdateStatus(ctx, runID, registry.StatusSucceeded); err != nil {
		return fmt.Errorf("mark succeeded: %w", err)
	}
	if _, err := r.journal.Emit(ctx, runID, "system", journal.TypeRunCompleted, map[string]any{"completed_nodes": completed}); err != nil {
		return fmt.Errorf("emit run_completed: %w", err)
	}
	r.metrics.RunsSucceeded.Inc()
	return nil
}
