package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overseerhq/overseer/registry"
)

func sampleGraph() registry.Graph {
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

func TestRegisterGraphAcceptsValidDAG(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.RegisterGraph(sampleGraph()))

	g, ok := r.Graph("git-to-prod-multi")
	require.True(t, ok)
	assert.Len(t, g.DAG, 9)
}

func TestRegisterGraphRejectsCycle(t *testing.T) {
	r := registry.New()
	g := registry.Graph{
		Name:   "cyclic",
		Agents: []string{"a", "b"},
		DAG: []registry.Edge{
			{From: "a", To: "b"},
			{From: "b", To: "a"},
		},
	}

	err := r.RegisterGraph(g)
	require.Error(t, err)
	var verr *registry.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "cycle")
}

func TestRegisterGraphRejectsUnknownEdgeEndpoint(t *testing.T) {
	r := registry.New()
	g := registry.Graph{
		Name:   "dangling",
		Agents: []string{"a"},
		DAG:    []registry.Edge{{From: "a", To: "b"}},
	}

	err := r.RegisterGraph(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node")
}

func TestUnknownGraphLookupMisses(t *testing.T) {
	r := registry.New()
	_, ok := r.Graph("does-not-exist")
	assert.False(t, ok)
}

func TestContextProfileFallsBackToDefaultBudget(t *testing.T) {
	r := registry.New()
	p := r.ContextProfile("reviewer-default")
	assert.Equal(t, 120000, p.BudgetTokens)
}

func TestRegisterProviderPoolRequiresAtLeastOneModel(t *testing.T) {
	r := registry.New()
	err := r.RegisterProviderPool(registry.ProviderPool{Name: "empty"})
	require.Error(t, err)
}

func TestDefaultPoolMatchesReferenceShape(t *testing.T) {
	pool := registry.DefaultPool()
	require.Len(t, pool.Models, 2)
	assert.Equal(t, "small-fast", pool.Models[0].Name)
	assert.Equal(t, "gpt-4.1", pool.Models[1].Name)
}
