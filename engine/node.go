// Package engine implements the DAG scheduler, node executor, and run
// supervisor: the core that walks a registered graph's edges, assembling
// context and dispatching to node handlers, recording every step in the
// event journal.
package engine

import (
	"context"

	"github.com/overseerhq/overseer/contextbundle"
	"github.com/overseerhq/overseer/journal"
	"github.com/overseerhq/overseer/router"
)

// Invocation carries everything a node handler needs: the run's static
// inputs, the event history so far (for handlers like aggregator that
// select among prior events), the assembled context bundle, and the
// router's model choice for this dispatch.
type Invocation struct {
	RunID  string
	Step   string
	Inputs map[string]any
	Events []journal.Event
	Bundle contextbundle.Bundle
	Model  router.Decision
}

// HandlerFunc implements one node's fixed contract (spec.md §4.5): it
// performs the node's primary action and returns the domain event type to
// emit alongside its data, or an error.
//
// A returned error is treated as a HandlerException: the executor records
// it as the node's error event and still emits node_done. To signal an
// infrastructural failure that must abort the run, handlers return the
// underlying *capability.PathEscapeError or *journal.WriteError unwrapped
// (or wrapped with %w) so errors.As still finds it.
type HandlerFunc func(ctx context.Context, inv *Invocation) (eventType string, data map[string]any, err error)

// HandlerTable maps node name to handler, the dispatch table package nodes
// builds and the executor consults.
type HandlerTable map[string]HandlerFunc
