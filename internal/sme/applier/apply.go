package applier

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/evolvsys/evolv/internal/sme/proposer"
)

const gitApplyTimeout = 10 * time.Second

// applyCheck runs `git apply --check` against diff inside dir, without
// mutating any files. On failure, it attempts a single repair pass via
// the Proposer's re-anchor helper (using the current content of the
// diff's target file in dir) and retries once.
func applyCheck(ctx context.Context, dir, diff, targetPath string) (ok bool, repaired string, detail string) {
	if checkDiff(ctx, dir, diff) {
		return true, diff, ""
	}

	fileText, readErr := readFileInDir(dir, targetPath)
	if readErr != nil {
		return false, diff, fmt.Sprintf("git apply --check failed and target file unavailable for repair: %v", readErr)
	}

	fixed, reanchorErr := proposer.ReanchorDiff(diff, fileText)
	if reanchorErr != nil {
		return false, diff, fmt.Sprintf("git apply --check failed and re-anchor repair failed: %v", reanchorErr)
	}

	if checkDiff(ctx, dir, fixed) {
		return true, fixed, ""
	}
	return false, diff, "git apply --check failed after re-anchor repair"
}

func checkDiff(ctx context.Context, dir, diff string) bool {
	runCtx, cancel := context.WithTimeout(ctx, gitApplyTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "git", "apply", "--check", "-")
	cmd.Dir = dir
	cmd.Stdin = bytes.NewBufferString(diff)
	return cmd.Run() == nil
}

// applyPatch runs `git apply` for real against dir (expected to already be
// an isolated scratch worktree; "Dry-run never mutates the
// live repo" is enforced by the caller only ever pointing dir at a
// worktree acquired via AcquireWorktree).
func applyPatch(ctx context.Context, dir, diff string) error {
	runCtx, cancel := context.WithTimeout(ctx, gitApplyTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "git", "apply", "-")
	cmd.Dir = dir
	cmd.Stdin = bytes.NewBufferString(diff)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("applier: git apply failed: %w: %s", err, stderr.String())
	}
	return nil
}

func readFileInDir(dir, relPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, relPath))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
