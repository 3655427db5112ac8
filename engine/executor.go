package engine

import (
	"context"
	"errors"

	"github.com/overseerhq/overseer/capability"
	"github.com/overseerhq/overseer/contextbundle"
	"github.com/overseerhq/overseer/journal"
	"github.com/overseerhq/overseer/registry"
	"github.com/overseerhq/overseer/router"
)

// contextProfileName is the profile every node dispatch compiles context
// against. The reference implementation hardcodes this name rather than
// reading it from the graph.
const contextProfileName = "reviewer-default"

// Executor assembles context, routes a model, dispatches to a node's
// handler, and records the resulting events for one node invocation.
type Executor struct {
	registry  *registry.Registry
	journal   *journal.Journal
	assembler *contextbundle.Assembler
	pool      *router.Pool
	handlers  HandlerTable
}

// NewExecutor wires an Executor's dependencies.
func NewExecutor(reg *registry.Registry, jr *journal.Journal, files capability.File, pool *router.Pool, handlers HandlerTable) *Executor {
	return &Executor{
		registry:  reg,
		journal:   jr,
		assembler: contextbundle.NewAssembler(files),
		pool:      pool,
		handlers:  handlers,
	}
}

// RunNode executes exactly one node per spec.md §4.5: compile context, emit
// context_compiled, dispatch to the node's handler, emit the handler's
// domain event, then emit node_done. It returns the handler's result.
//
// An error return is always infrastructural (*capability.PathEscapeError or
// *journal.WriteError): the scheduler must abort the run. Every other
// failure mode is folded into the result and recorded as an event.
func (e *Executor) RunNode(ctx context.Context, run registry.Run, graph registry.Graph, step string, events []journal.Event) (map[string]any, error) {
	profile := e.registry.ContextProfile(contextProfileName)
	policy, _ := e.registry.Policy(graph.PolicyName)

	bundle, err := e.assembler.Compile(events, profile, policy)
	if err != nil {
		return nil, err
	}

	decision := router.ChooseModel(bundle.Manifest.TotalTokens, step, e.pool.Spec())

	if _, err := e.journal.Emit(ctx, run.ID, step, journal.TypeContextCompiled, map[string]any{
		"manifest": bundle.Manifest,
		"model":    decision,
	}); err != nil {
		return nil, err
	}

	result, err := e.dispatch(ctx, run, step, events, bundle, decision)
	if err != nil {
		return nil, err
	}

	if _, err := e.journal.Emit(ctx, run.ID, step, journal.TypeNodeDone, map[string]any{"result": result}); err != nil {
		return nil, err
	}
	return result, nil
}

// dispatch calls the node's handler (or records an unknown-node error) and
// emits the handler's own domain event.
func (e *Executor) dispatch(ctx context.Context, run registry.Run, step string, events []journal.Event, bundle contextbundle.Bundle, decision router.Decision) (map[string]any, error) {
	handler, ok := e.handlers[step]
	if !ok {
		data := map[string]any{"error": (&UnknownNodeError{Step: step}).Error()}
		if _, err := e.journal.Emit(ctx, run.ID, step, journal.TypeError, data); err != nil {
			return nil, err
		}
		return data, nil
	}

	inv := &Invocation{
		RunID:  run.ID,
		Step:   step,
		Inputs: run.Inputs,
		Events: events,
		Bundle: bundle,
		Model:  decision,
	}

	eventType, data, err := handler(ctx, inv)
	if err != nil {
		var escape *capability.PathEscapeError
		var writeErr *journal.WriteError
		if errors.As(err, &escape) || errors.As(err, &writeErr) {
			return nil, err
		}
		// HandlerException: fold into an error event, do not abort the run.
		data = map[string]any{"error": err.Error()}
		if _, emitErr := e.journal.Emit(ctx, run.ID, step, journal.TypeError, data); emitErr != nil {
			return nil, emitErr
		}
		return data, nil
	}

	if _, err := e.journal.Emit(ctx, run.ID, step, eventType, data); err != nil {
		return nil, err
	}
	return data, nil
}
