package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "go.mod"))
	assert.DirExists(t, filepath.Join(root, "internal"))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	assert.NoDirExists(t, dir)
	require.NoError(t, EnsureDir(dir))
	assert.DirExists(t, dir)
	require.NoError(t, EnsureDir(dir), "existing directory")
	assert.NoFileExists(t, filepath.Join(dir, "none"))
}
