package capability_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overseerhq/overseer/capability"
)

func newSafeRootFile(t *testing.T) (*capability.SafeRootFile, string) {
	t.Helper()
	root := t.TempDir()
	f, err := capability.NewSafeRootFile(root)
	require.NoError(t, err)
	return f, root
}

func TestReadWriteRoundTrip(t *testing.T) {
	f, _ := newSafeRootFile(t)

	res, err := f.Write("app.py", "return 41")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, len("return 41"), res.Bytes)

	read, err := f.Read("app.py")
	require.NoError(t, err)
	assert.Nil(t, read.Err)
	assert.Equal(t, "return 41", read.Content)
}

func TestWriteCreatesParentDirectories(t *testing.T) {
	f, root := newSafeRootFile(t)

	_, err := f.Write("tests/test_app.py", "assert True")
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(root, "tests", "test_app.py"))
	require.NoError(t, statErr)
}

func TestReadMissingFileReturnsToolErrorNotGoError(t *testing.T) {
	f, _ := newSafeRootFile(t)

	res, err := f.Read("missing.txt")
	require.NoError(t, err)
	require.NotNil(t, res.Err)
	assert.Contains(t, res.Err.Error(), "file not found")
}

func TestPathEscapeRejectedForDotDotTricks(t *testing.T) {
	f, _ := newSafeRootFile(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.txt",
		"a/../../b",
	}
	for _, p := range cases {
		_, err := f.Read(p)
		require.Error(t, err, "path %q should escape safe root", p)
		var escErr *capability.PathEscapeError
		require.ErrorAs(t, err, &escErr)

		_, err = f.Write(p, "x")
		require.Error(t, err, "write of %q should escape safe root", p)
		require.ErrorAs(t, err, &escErr)
	}
}
