package applier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireWorktreeCopiesFilesExcludingVCSMetadata(t *testing.T) {
	src, err := os.MkdirTemp("", "evolv-applier-src-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(src) })

	require.NoError(t, os.MkdirAll(filepath.Join(src, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".git", "HEAD"), []byte("ref: refs/heads/main"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "main.go"), []byte("package main"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "internal", "bandit"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "internal", "bandit", "policy.go"), []byte("package bandit"), 0o644))

	dir, release, err := AcquireWorktree(src)
	require.NoError(t, err)
	defer release()

	_, err = os.Stat(filepath.Join(dir, ".git"))
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(dir, "internal", "bandit", "policy.go"))
	require.NoError(t, err)
	assert.Equal(t, "package bandit", string(data))
}

func TestAcquireWorktreeReleaseRemovesDirectory(t *testing.T) {
	src, err := os.MkdirTemp("", "evolv-applier-src-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(src) })
	require.NoError(t, os.WriteFile(filepath.Join(src, "main.go"), []byte("package main"), 0o644))

	dir, release, err := AcquireWorktree(src)
	require.NoError(t, err)
	release()

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
