package applier

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initGitRepo(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "evolv-applier-git-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "internal", "bandit"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "internal", "bandit", "policy.go"), []byte("package bandit\n"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "init")
	return dir
}

func TestApplyCheckAcceptsValidDiff(t *testing.T) {
	dir := initGitRepo(t)
	diff := "--- a/internal/bandit/policy.go\n" +
		"+++ b/internal/bandit/policy.go\n" +
		"@@ -1,1 +1,2 @@\n" +
		" package bandit\n" +
		"+// smoke\n"

	ok, _, detail := applyCheck(context.Background(), dir, diff, "internal/bandit/policy.go")
	assert.True(t, ok, detail)
}

func TestApplyCheckRejectsMalformedDiff(t *testing.T) {
	dir := initGitRepo(t)
	ok, _, detail := applyCheck(context.Background(), dir, "not a diff at all", "internal/bandit/policy.go")
	assert.False(t, ok)
	assert.NotEmpty(t, detail)
}

func TestApplyPatchMutatesWorktreeFile(t *testing.T) {
	dir := initGitRepo(t)
	diff := "--- a/internal/bandit/policy.go\n" +
		"+++ b/internal/bandit/policy.go\n" +
		"@@ -1,1 +1,2 @@\n" +
		" package bandit\n" +
		"+// applied\n"

	require.NoError(t, applyPatch(context.Background(), dir, diff))
	data, err := os.ReadFile(filepath.Join(dir, "internal", "bandit", "policy.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "// applied")
}

func TestApplyLiveFailsClosedWithoutEnablement(t *testing.T) {
	dir := initGitRepo(t)
	err := ApplyLive(context.Background(), dir, "irrelevant", false)
	assert.Error(t, err)
}

func TestDryRunReportsAllThreeFlags(t *testing.T) {
	dir := initGitRepo(t)
	diff := "--- a/internal/bandit/policy.go\n" +
		"+++ b/internal/bandit/policy.go\n" +
		"@@ -1,1 +1,2 @@\n" +
		" package bandit\n" +
		"+// dry run\n"

	result, err := DryRun(context.Background(), dir, evoltypesMetaPatch("p1", diff))
	require.NoError(t, err)
	assert.True(t, result.ApplyOK)
	assert.Equal(t, "p1", result.PatchID)

	// the live repo must be untouched by the dry run
	data, readErr := os.ReadFile(filepath.Join(dir, "internal", "bandit", "policy.go"))
	require.NoError(t, readErr)
	assert.NotContains(t, string(data), "// dry run")
}

func TestDryRunReportsApplyFailureWithoutLintingOrTesting(t *testing.T) {
	dir := initGitRepo(t)
	result, err := DryRun(context.Background(), dir, evoltypesMetaPatch("p2", "garbage diff"))
	require.NoError(t, err)
	assert.False(t, result.ApplyOK)
	assert.False(t, result.Success)
}
