package commit

import (
	"bytes"
	"context"
	"os/exec"
)

// applyPatchForCommit runs `git apply` against dir for real, mirroring
// internal/sme/applier's applyPatch but operating against a checked-out
// branch of the live repo rather than a scratch worktree.
func applyPatchForCommit(ctx context.Context, dir, diff string) error {
	runCtx, cancel := contextWithGitTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "git", "apply", "-")
	cmd.Dir = dir
	cmd.Stdin = bytes.NewBufferString(diff)
	return cmd.Run()
}

// runTestsForCommit runs `go test ./...` against dir, capturing combined
// output for the artifact's TestResults field (step 2:
// "optionally run tests").
func runTestsForCommit(ctx context.Context, dir string) (ok bool, output string) {
	runCtx, cancel := contextWithGitTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "go", "test", "./...")
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return err == nil, out.String()
}
