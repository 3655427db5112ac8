package runstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overseerhq/overseer/registry"
	"github.com/overseerhq/overseer/runstore"
)

func newSQLiteStore(t *testing.T) *runstore.SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := runstore.NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreCreateAndGet(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	run := registry.Run{ID: "r1", Graph: "g", Inputs: map[string]any{"x": 1.0}, Status: registry.StatusPending}
	require.NoError(t, s.Create(ctx, run))

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "g", got.Graph)
	assert.Equal(t, registry.StatusPending, got.Status)
	assert.Equal(t, 1.0, got.Inputs["x"])
}

func TestSQLiteStoreGetMissingReturnsNotFound(t *testing.T) {
	s := newSQLiteStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, runstore.ErrNotFound)
}

func TestSQLiteStoreUpdateStatusMissingReturnsNotFound(t *testing.T) {
	s := newSQLiteStore(t)
	err := s.UpdateStatus(context.Background(), "nope", registry.StatusRunning)
	assert.ErrorIs(t, err, runstore.ErrNotFound)
}

func TestSQLiteStoreListPendingInInsertionOrder(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, registry.Run{ID: "r1", Graph: "g", Status: registry.StatusPending}))
	require.NoError(t, s.Create(ctx, registry.Run{ID: "r2", Graph: "g", Status: registry.StatusPending}))
	require.NoError(t, s.Create(ctx, registry.Run{ID: "r3", Graph: "g", Status: registry.StatusRunning}))

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "r1", pending[0].ID)
	assert.Equal(t, "r2", pending[1].ID)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := runstore.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), registry.Run{ID: "r1", Graph: "g", Status: registry.StatusPending}))
	require.NoError(t, s.Close())

	reopened, err := runstore.NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "g", got.Graph)
}
