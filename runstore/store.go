// Package runstore persists Run records: enough for the supervisor to
// recover a pending queue across restarts. It is deliberately a thin
// record store, not a checkpoint/frontier system — run state recovery
// flows through the event journal (see package journal), not through here.
package runstore

import (
	"context"
	"errors"

	"github.com/overseerhq/overseer/registry"
)

// ErrNotFound is returned when a requested run ID does not exist.
var ErrNotFound = errors.New("runstore: not found")

// Store persists and queries Run records.
type Store interface {
	// Create inserts a new run, which must not already exist.
	Create(ctx context.Context, run registry.Run) error

	// Get retrieves a run by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (registry.Run, error)

	// UpdateStatus transitions a run's status. Implementations need not
	// enforce the pending->running->{succeeded,failed} ordering; the
	// engine is the sole writer and already guarantees it.
	UpdateStatus(ctx context.Context, id string, status registry.RunStatus) error

	// ListPending returns every run currently in StatusPending, in
	// creation order, for the supervisor's poll loop.
	ListPending(ctx context.Context) ([]registry.Run, error)

	// Close releases any resources the implementation holds open.
	Close() error
}
