package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overseerhq/overseer/capability"
	"github.com/overseerhq/overseer/engine"
	"github.com/overseerhq/overseer/journal"
	"github.com/overseerhq/overseer/registry"
	"github.com/overseerhq/overseer/router"
	"github.com/overseerhq/overseer/runstore"
)

// gitToProdGraph mirrors the reference git-to-prod-multi graph: planner
// fans out to three fixers, all joining at aggregator, then a sequential
// tail of tester -> security -> release gated on success events.
func gitToProdGraph() registry.Graph {
	return registry.Graph{
		Name:   "git-to-prod-multi",
		Agents: []string{"planner", "py_fixer", "fe_fixer", "test_writer", "aggregator", "tester", "security", "release"},
		DAG: []registry.Edge{
			{From: "planner", To: "py_fixer", Parallel: true},
			{From: "planner", To: "fe_fixer", Parallel: true},
			{From: "planner", To: "test_writer", Parallel: true},
			{From: "py_fixer", To: "aggregator", Join: "all"},
			{From: "fe_fixer", To: "aggregator", Join: "all"},
			{From: "test_writer", To: "aggregator", Join: "all"},
			{From: "aggregator", To: "tester"},
			{From: "tester", To: "security", On: []string{"tests_passed"}},
			{From: "security", To: "release", On: []string{"security_ok"}},
		},
	}
}

func fakeHandlers(testsPass, securityOK bool) engine.HandlerTable {
	return engine.HandlerTable{
		"planner": func(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
			return "plan_ready", map[string]any{"target_files": []string{"app.py"}, "hint": "42"}, nil
		},
		"py_fixer": func(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
			return "patch_created", map[string]any{"success": true}, nil
		},
		"fe_fixer": func(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
			return "patch_created", map[string]any{"patch": nil}, nil
		},
		"test_writer": func(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
			return "test_updated", map[string]any{"success": true}, nil
		},
		"aggregator": func(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
			return "patch_selected", map[string]any{"selected_patch": "app.py"}, nil
		},
		"tester": func(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
			if testsPass {
				return "tests_passed", map[string]any{"passed": true}, nil
			}
			return "tests_failed", map[string]any{"passed": false}, nil
		},
		"security": func(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
			if securityOK {
				return "security_ok", map[string]any{"ok": true}, nil
			}
			return "security_failed", map[string]any{"ok": false}, nil
		},
		"release": func(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
			return "release_complete", map[string]any{"released": true}, nil
		},
	}
}

func newTestRunner(t *testing.T, handlers engine.HandlerTable) (*engine.Runner, *journal.Journal, runstore.Store) {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.RegisterGraph(gitToProdGraph()))
	require.NoError(t, reg.RegisterProviderPool(registry.DefaultPool()))

	jr := journal.NewJournal(t.TempDir())
	files := capability.NewFakeFile(map[string]string{"app.py": "x", "tests/test_app.py": "y"})
	pool := router.NewPool(registry.DefaultPool())
	executor := engine.NewExecutor(reg, jr, files, pool, handlers)
	scheduler := engine.NewScheduler(jr, executor)
	store := runstore.NewMemStore()
	runner := engine.NewRunner(reg, jr, store, scheduler, nil)
	return runner, jr, store
}

func TestExecuteRunHappyPathReachesRelease(t *testing.T) {
	runner, jr, store := newTestRunner(t, fakeHandlers(true, true))
	ctx := context.Background()

	run := registry.Run{ID: "run-1", Graph: "git-to-prod-multi", Status: registry.StatusPending}
	require.NoError(t, store.Create(ctx, run))

	require.NoError(t, runner.ExecuteRun(ctx, "run-1"))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, registry.StatusSucceeded, got.Status)

	events := jr.Read("run-1")
	var sawRelease bool
	for _, e := range events {
		if e.Step == "release" && e.Type == "release_complete" {
			sawRelease = true
		}
	}
	assert.True(t, sawRelease, "expected release_complete event")
}

func TestExecuteRunOrderingAcrossFanOutAndJoin(t *testing.T) {
	runner, jr, store := newTestRunner(t, fakeHandlers(true, true))
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, registry.Run{ID: "run-1", Graph: "git-to-prod-multi", Status: registry.StatusPending}))
	require.NoError(t, runner.ExecuteRun(ctx, "run-1"))

	events := jr.Read("run-1")
	stepIndex := map[string]int{}
	for i, e := range events {
		if _, seen := stepIndex[e.Step]; !seen {
			stepIndex[e.Step] = i
		}
	}

	assert.Less(t, stepIndex["planner"], stepIndex["py_fixer"])
	assert.Less(t, stepIndex["py_fixer"], stepIndex["aggregator"])
	assert.Less(t, stepIndex["aggregator"], stepIndex["tester"])
	assert.Less(t, stepIndex["tester"], stepIndex["security"])
	assert.Less(t, stepIndex["security"], stepIndex["release"])
}

func TestExecuteRunGatedEdgeBlocksOnTestFailure(t *testing.T) {
	runner, jr, store := newTestRunner(t, fakeHandlers(false, true))
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, registry.Run{ID: "run-1", Graph: "git-to-prod-multi", Status: registry.StatusPending}))
	require.NoError(t, runner.ExecuteRun(ctx, "run-1"))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, registry.StatusSucceeded, got.Status)

	for _, e := range jr.Read("run-1") {
		assert.NotEqual(t, "security", e.Step, "security must not run when tests failed")
	}
}

func TestReplayFromCopiesPrefixAndReexecutesTail(t *testing.T) {
	runner, jr, store := newTestRunner(t, fakeHandlers(true, true))
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, registry.Run{ID: "run-1", Graph: "git-to-prod-multi", Status: registry.StatusPending}))
	require.NoError(t, runner.ExecuteRun(ctx, "run-1"))

	parentPrefix := jr.PrefixUntil("run-1", "tester")

	childID, err := runner.ReplayFrom(ctx, "run-1", "tester")
	require.NoError(t, err)
	assert.Equal(t, "run-1-replay-tester", childID)

	childEvents := jr.Read(childID)
	require.GreaterOrEqual(t, len(childEvents), len(parentPrefix))
	for i, e := range parentPrefix {
		assert.Equal(t, e.Step, childEvents[i].Step)
		assert.Equal(t, e.Type, childEvents[i].Type)
	}

	var sawRelease bool
	for _, e := range childEvents {
		if e.Step == "release" && e.Type == "release_complete" {
			sawRelease = true
		}
	}
	assert.True(t, sawRelease)
}

func TestUnknownNodeEmitsErrorEvent(t *testing.T) {
	reg := registry.New()
	graph := registry.Graph{Name: "g", Agents: []string{"mystery"}, DAG: nil}
	require.NoError(t, reg.RegisterGraph(graph))
	require.NoError(t, reg.RegisterProviderPool(registry.DefaultPool()))

	jr := journal.NewJournal(t.TempDir())
	files := capability.NewFakeFile(nil)
	pool := router.NewPool(registry.DefaultPool())
	executor := engine.NewExecutor(reg, jr, files, pool, engine.HandlerTable{})
	scheduler := engine.NewScheduler(jr, executor)
	store := runstore.NewMemStore()
	runner := engine.NewRunner(reg, jr, store, scheduler, nil)

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, registry.Run{ID: "run-1", Graph: "g", Status: registry.StatusPending}))
	require.NoError(t, runner.ExecuteRun(ctx, "run-1"))

	var sawError bool
	for _, e := range jr.Read("run-1") {
		if e.Step == "mystery" && e.Type == journal.TypeError {
			sawError = true
		}
	}
	assert.True(t, sawError)
}
