package capability_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overseerhq/overseer/capability"
)

func TestCommandTestReportsPassOnZeroExit(t *testing.T) {
	dir := t.TempDir()
	c := capability.NewCommandTest(dir, "true")

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Passed)
}

func TestCommandTestReportsFailOnNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	c := capability.NewCommandTest(dir, "false")

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Passed)
}

func TestCommandTestTruncatesOutputTail(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "big.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nyes x | head -c 5000\nexit 1\n"), 0o755))

	c := capability.NewCommandTest(dir, "/bin/sh", script)
	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.LessOrEqual(t, len(res.Output), 2003)
	assert.True(t, strings.HasPrefix(res.Output, "..."))
}
