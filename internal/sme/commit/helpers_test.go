package commit

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func initGitRepo(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "evolv-commit-git-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}
	run("init", "-q", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "internal", "bandit"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "internal", "bandit", "policy.go"), []byte("package bandit\n"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "init")
	return dir
}

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
