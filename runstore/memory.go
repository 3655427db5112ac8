package runstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/overseerhq/overseer/registry"
)

// MemStore is an in-memory Store, adequate for tests and single-process
// deployments where losing the pending queue on restart is acceptable.
type MemStore struct {
	mu   sync.RWMutex
	runs map[string]registry.Run
	seq  map[string]int // insertion order, for ListPending's creation-order guarantee
	next int
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		runs: make(map[string]registry.Run),
		seq:  make(map[string]int),
	}
}

func (m *MemStore) Create(_ context.Context, run registry.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[run.ID]; exists {
		return fmt.Errorf("runstore: run %q already exists", run.ID)
	}
	m.runs[run.ID] = run
	m.seq[run.ID] = m.next
	m.next++
	return nil
}

func (m *MemStore) Get(_ context.Context, id string) (registry.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return registry.Run{}, ErrNotFound
	}
	return run, nil
}

func (m *MemStore) UpdateStatus(_ context.Context, id string, status registry.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return ErrNotFound
	}
	run.Status = status
	m.runs[id] = run
	return nil
}

func (m *MemStore) ListPending(_ context.Context) ([]registry.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pending []registry.Run
	for _, run := range m.runs {
		if run.Status == registry.StatusPending {
			pending = append(pending, run)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return m.seq[pending[i].ID] < m.seq[pending[j].ID]
	})
	return pending, nil
}

func (m *MemStore) Close() error { return nil }
