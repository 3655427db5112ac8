package registry

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Registry is the process-wide state initialized once at startup: every
// registered graph, policy, context profile, and provider pool, read by
// name on every run. A single read-write mutex guards all four maps; the
// zero value is not usable, use New.
type Registry struct {
	mu       sync.RWMutex
	graphs   map[string]Graph
	policies map[string]Policy
	profiles map[string]ContextProfile
	pools    map[string]ProviderPool
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		graphs:   make(map[string]Graph),
		policies: make(map[string]Policy),
		profiles: make(map[string]ContextProfile),
		pools:    make(map[string]ProviderPool),
	}
}

// RegisterGraph validates and stores a Graph. Validation enforces spec.md's
// DAG invariants: no cycle, and every edge endpoint is in Agents.
func (r *Registry) RegisterGraph(g Graph) error {
	if err := validate.Struct(g); err != nil {
		return &ValidationError{Subject: "graph", Name: g.Name, Reason: err.Error()}
	}
	if err := validateEdgeEndpoints(g); err != nil {
		return err
	}
	if err := validateAcyclic(g); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.graphs[g.Name] = g
	return nil
}

func validateEdgeEndpoints(g Graph) error {
	agents := make(map[string]struct{}, len(g.Agents))
	for _, a := range g.Agents {
		agents[a] = struct{}{}
	}
	for _, e := range g.DAG {
		if _, ok := agents[e.From]; !ok {
			return &ValidationError{Subject: "graph", Name: g.Name, Reason: "edge references unknown node " + e.From}
		}
		if _, ok := agents[e.To]; !ok {
			return &ValidationError{Subject: "graph", Name: g.Name, Reason: "edge references unknown node " + e.To}
		}
	}
	return nil
}

// validateAcyclic rejects graphs containing a cycle using Kahn's algorithm:
// a graph is acyclic iff repeatedly removing zero-in-degree nodes empties
// the node set.
func validateAcyclic(g Graph) error {
	inDegree := make(map[string]int, len(g.Agents))
	adj := make(map[string][]string, len(g.Agents))
	for _, a := range g.Agents {
		inDegree[a] = 0
	}
	for _, e := range g.DAG {
		adj[e.From] = append(adj[e.From], e.To)
		inDegree[e.To]++
	}

	queue := make([]string, 0, len(g.Agents))
	for _, a := range g.Agents {
		if inDegree[a] == 0 {
			queue = append(queue, a)
		}
	}

	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		for _, child := range adj[n] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if visited != len(g.Agents) {
		return &ValidationError{Subject: "graph", Name: g.Name, Reason: "graph contains a cycle"}
	}
	return nil
}

// Graph returns a registered graph by name.
func (r *Registry) Graph(name string) (Graph, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.graphs[name]
	return g, ok
}

// RegisterPolicy validates and stores a Policy.
func (r *Registry) RegisterPolicy(p Policy) error {
	if err := validate.Struct(p); err != nil {
		return &ValidationError{Subject: "policy", Name: p.Name, Reason: err.Error()}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[p.Name] = p
	return nil
}

// Policy returns a registered policy by name.
func (r *Registry) Policy(name string) (Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[name]
	return p, ok
}

// RegisterContextProfile validates and stores a ContextProfile.
func (r *Registry) RegisterContextProfile(p ContextProfile) error {
	if p.BudgetTokens == 0 {
		p.BudgetTokens = 120000
	}
	if err := validate.Struct(p); err != nil {
		return &ValidationError{Subject: "context profile", Name: p.Name, Reason: err.Error()}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Name] = p
	return nil
}

// ContextProfile returns a registered context profile by name, falling
// back to a default 120,000-token budget profile when name is unknown —
// mirroring the reference implementation's compile_context default.
func (r *Registry) ContextProfile(name string) ContextProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.profiles[name]; ok {
		return p
	}
	return ContextProfile{Name: name, BudgetTokens: 120000}
}

// RegisterProviderPool validates and stores a ProviderPool.
func (r *Registry) RegisterProviderPool(p ProviderPool) error {
	if err := validate.Struct(p); err != nil {
		return &ValidationError{Subject: "provider pool", Name: p.Name, Reason: err.Error()}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[p.Name] = p
	return nil
}

// ProviderPool returns a registered provider pool by name.
func (r *Registry) ProviderPool(name string) (ProviderPool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[name]
	return p, ok
}

// DefaultPool is the pool seeded at startup when no pool has been
// registered yet, matching the reference implementation's DEFAULT_POOL.
func DefaultPool() ProviderPool {
	return ProviderPool{
		Name: "default",
		Models: []ModelSpec{
			{Name: "small-fast", MaxContext: 8000, RPS: 200, Cost: 0.0005},
			{Name: "gpt-4.1", MaxContext: 128000, RPS: 20, Cost: 0.015},
		},
	}
}
