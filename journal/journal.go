package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/overseerhq/overseer/journal")

var eventsEmitted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "overseer_journal_events_emitted_total",
		Help: "Number of events appended to run journals, by event type.",
	},
	[]string{"type"},
)

func init() {
	prometheus.MustRegister(eventsEmitted)
}

// Journal is an append-only, per-run event log. It is safe for concurrent
// use: emission is serialized per run via a per-run mutex, while distinct
// runs may emit concurrently without contending on a shared lock.
//
// Each run's events are held in memory for fast reads and are additionally
// appended, one self-delimited JSON line per event, to
// <dataRoot>/<run_id>/events.jsonl for durability.
type Journal struct {
	dataRoot string
	now      func() time.Time

	mu   sync.Mutex // protects runs map only; per-run locks guard append order
	runs map[string]*runLog
}

type runLog struct {
	mu     sync.Mutex
	events []Event
	file   *os.File
}

// NewJournal creates a Journal that persists durable event streams under
// dataRoot. dataRoot is created on first write to a given run if it does
// not already exist.
func NewJournal(dataRoot string) *Journal {
	return &Journal{
		dataRoot: dataRoot,
		now:      time.Now,
		runs:     make(map[string]*runLog),
	}
}

// WithClock overrides the wall-clock source used to stamp events. Intended
// for tests that need deterministic or controllable timestamps.
func (j *Journal) WithClock(now func() time.Time) *Journal {
	j.now = now
	return j
}

func (j *Journal) runLogFor(runID string) *runLog {
	j.mu.Lock()
	defer j.mu.Unlock()
	rl, ok := j.runs[runID]
	if !ok {
		rl = &runLog{}
		j.runs[runID] = rl
	}
	return rl
}

// Emit stamps a wall-clock timestamp, appends the event to the in-memory
// per-run list, and appends one JSON line to the run's durable journal
// file. Emission is serialized per run; across runs it proceeds
// concurrently.
//
// Emit fails with *WriteError only when the durable append fails after the
// in-memory append has already succeeded — the engine must treat that as
// fatal for the run, since the two views of history have now diverged.
func (j *Journal) Emit(ctx context.Context, runID, step, typ string, data map[string]any) (Event, error) {
	_, span := tracer.Start(ctx, "journal.Emit",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.String("step", step),
			attribute.String("type", typ),
		))
	defer span.End()

	ev := Event{
		RunID: runID,
		Step:  step,
		Type:  typ,
		TS:    j.now(),
		Data:  data,
	}

	rl := j.runLogFor(runID)
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.events = append(rl.events, ev)

	if err := j.appendDurable(rl, runID, ev); err != nil {
		return ev, &WriteError{RunID: runID, Err: err}
	}

	eventsEmitted.WithLabelValues(typ).Inc()
	return ev, nil
}

func (j *Journal) appendDurable(rl *runLog, runID string, ev Event) error {
	if rl.file == nil {
		dir := filepath.Join(j.dataRoot, runID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create run data dir: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(dir, "events.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open events.jsonl: %w", err)
		}
		rl.file = f
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	line = append(line, '\n')
	if _, err := rl.file.Write(line); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Read returns the current in-memory sequence of events for a run, in
// emission order. The returned slice is a copy and safe to retain.
func (j *Journal) Read(runID string) []Event {
	rl := j.runLogFor(runID)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	out := make([]Event, len(rl.events))
	copy(out, rl.events)
	return out
}

// PrefixUntil returns the events strictly preceding the first event whose
// Step equals step. If no such event exists, it returns all events for the
// run. Used by replay to clone a parent run's history into a child.
func (j *Journal) PrefixUntil(runID, step string) []Event {
	all := j.Read(runID)
	for i, ev := range all {
		if ev.Step == step {
			out := make([]Event, i)
			copy(out, all[:i])
			return out
		}
	}
	return all
}

// Seed installs a pre-existing sequence of events as the starting history
// for runID, without touching the durable file beyond appending each event
// in order. It is used by replay to materialize a child run's copied
// prefix before the scheduler begins dispatching new work.
func (j *Journal) Seed(ctx context.Context, runID string, events []Event) error {
	rl := j.runLogFor(runID)
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for _, ev := range events {
		rl.events = append(rl.events, ev)
		if err := j.appendDurable(rl, runID, ev); err != nil {
			return &WriteError{RunID: runID, Err: err}
		}
	}
	return nil
}

// Close releases the durable file handles held for runID, if any. Safe to
// call on a run with no open handle.
func (j *Journal) Close(runID string) error {
	j.mu.Lock()
	rl, ok := j.runs[runID]
	j.mu.Unlock()
	if !ok || rl.file == nil {
		return nil
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	err := rl.file.Close()
	rl.file = nil
	return err
}
