package runstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overseerhq/overseer/registry"
	"github.com/overseerhq/overseer/runstore"
)

func TestMemStoreCreateAndGet(t *testing.T) {
	s := runstore.NewMemStore()
	ctx := context.Background()

	run := registry.Run{ID: "r1", Graph: "g", Status: registry.StatusPending, CreatedAt: time.Now()}
	require.NoError(t, s.Create(ctx, run))

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "g", got.Graph)
}

func TestMemStoreGetMissingReturnsNotFound(t *testing.T) {
	s := runstore.NewMemStore()
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, runstore.ErrNotFound)
}

func TestMemStoreUpdateStatus(t *testing.T) {
	s := runstore.NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, registry.Run{ID: "r1", Status: registry.StatusPending}))

	require.NoError(t, s.UpdateStatus(ctx, "r1", registry.StatusRunning))
	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, registry.StatusRunning, got.Status)
}

func TestMemStoreListPendingInCreationOrder(t *testing.T) {
	s := runstore.NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, registry.Run{ID: "r1", Status: registry.StatusPending}))
	require.NoError(t, s.Create(ctx, registry.Run{ID: "r2", Status: registry.StatusPending}))
	require.NoError(t, s.Create(ctx, registry.Run{ID: "r3", Status: registry.StatusRunning}))

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "r1", pending[0].ID)
	assert.Equal(t, "r2", pending[1].ID)
}
