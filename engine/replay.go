package engine

import (
	"context"
	"fmt"

	"github.com/overseerhq/overseer/registry"
)

// ReplayFrom implements spec.md §4.7's replay_from: create a child run with
// id "<parent>-replay-<from_step>" and ParentRun set, seed its journal with
// the parent's event prefix strictly before the first from_step event, then
// execute it; nodes whose node_done is in the prefix are not re-run. If
// from_step never occurs in the parent, the full history is copied and
// ExecuteRun finds nothing left to do — preserved as defined behavior
// (spec.md §9).
func (r *Runner) ReplayFrom(ctx context.Context, parentRunID, fromStep string) (string, error) {
	parent, err := r.store.Get(ctx, parentRunID)
	if err != nil {
		return "", fmt.Errorf("load parent run %q: %w", parentRunID, err)
	}

	childID := fmt.Sprintf("%s-replay-%s", parentRunID, fromStep)
	child := registry.Run{
		ID:        childID,
		Graph:     parent.Graph,
		Inputs:    parent.Inputs,
		Status:    registry.StatusPending,
		ParentRun: parentRunID,
	}

	prefix := r.journal.PrefixUntil(parentRunID, fromStep)
	if err := r.journal.Seed(ctx, childID, prefix); err != nil {
		return "", fmt.Errorf("seed replay journal: %w", err)
	}

	if err := r.store.Create(ctx, child); err != nil {
		return "", fmt.Errorf("create replay run: %w", err)
	}

	if err := r.ExecuteRun(ctx, childID); err != nil {
		return "", err
	}
	return childID, nil
}
