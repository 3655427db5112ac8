package runstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overseerhq/overseer/registry"
	"github.com/overseerhq/overseer/runstore"
)

// TestMySQLStoreCreateAndGet only runs against a real MySQL/MariaDB
// instance, reached via OVERSEER_TEST_MYSQL_DSN. It is skipped otherwise,
// matching the teacher's convention of gating store integration tests
// behind an environment variable rather than an in-process fake server.
func TestMySQLStoreCreateAndGet(t *testing.T) {
	dsn := os.Getenv("OVERSEER_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("OVERSEER_TEST_MYSQL_DSN not set, skipping MySQL integration test")
	}

	s, err := runstore.NewMySQLStore(dsn)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	run := registry.Run{ID: "mysql-it-r1", Graph: "g", Status: registry.StatusPending}
	require.NoError(t, s.Create(ctx, run))

	got, err := s.Get(ctx, "mysql-it-r1")
	require.NoError(t, err)
	assert.Equal(t, "g", got.Graph)

	require.NoError(t, s.UpdateStatus(ctx, "mysql-it-r1", registry.StatusSucceeded))
	got, err = s.Get(ctx, "mysql-it-r1")
	require.NoError(t, err)
	assert.Equal(t, registry.StatusSucceeded, got.Status)
}

func TestNewMySQLStoreRejectsUnreachableDSN(t *testing.T) {
	_, err := runstore.NewMySQLStore("bogus:bogus@tcp(127.0.0.1:1)/overseer?timeout=1s")
	assert.Error(t, err)
}
