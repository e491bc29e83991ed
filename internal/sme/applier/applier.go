// Package applier implements the Applier Dry-Run: apply a
// proposed patch inside an isolated scratch worktree, lint it, run its
// tests, and report (apply_ok, lint_ok, tests_ok) without ever mutating
// the live repository. Subprocess orchestration follows Go's idiomatic
// os/exec.CommandContext + context.WithTimeout pattern.
package applier

import (
	"context"
	"fmt"
	"time"

	"github.com/evolvsys/evolv/pkg/evoltypes"
)

// Result is the outcome of one dry-run.
type Result struct {
	PatchID string
	Success bool
	ApplyOK bool
	LintOK bool
	TestsOK bool
	Stdout string
	Stderr string
	FilesModified []string
	ExecutionTimeMS int64
}

// StdoutSnippet truncates Stdout to 200 chars for summaries (
// step 5).
func (r Result) StdoutSnippet() string { return truncateSummary(r.Stdout, 200) }

// DryRun acquires a scratch worktree copied from repoRoot, applies
// patch.UnifiedDiff (with a single re-anchor repair attempt on check
// failure), lints, and runs up to maxTestFiles discovered test files —
// never touching repoRoot. The worktree is always released, even on
// error ("release deletes the temp tree even on exception").
func DryRun(ctx context.Context, repoRoot string, patch evoltypes.MetaPatch) (Result, error) {
	start := time.Now()
	result := Result{PatchID: patch.ID}

	dir, release, err := AcquireWorktree(repoRoot)
	if err != nil {
		return result, err
	}
	defer release()

	paths := diffTargetPaths(patch.UnifiedDiff)
	var target string
	if len(paths) > 0 {
		target = paths[0]
	}

	ok, diff, detail := applyCheck(ctx, dir, patch.UnifiedDiff, target)
	result.ApplyOK = ok
	if !ok {
		result.Stderr = detail
		result.ExecutionTimeMS = time.Since(start).Milliseconds()
		return result, nil
	}

	if err := applyPatch(ctx, dir, diff); err != nil {
		result.ApplyOK = false
		result.Stderr = err.Error()
		result.ExecutionTimeMS = time.Since(start).Milliseconds()
		return result, nil
	}
	result.FilesModified = paths

	lintOK, lintOut := runLint(ctx, dir)
	result.LintOK = lintOK
	result.Stdout += lintOut

	testsOK, testOut := runTests(ctx, dir)
	result.TestsOK = testsOK
	result.Stdout += testOut

	result.Success = result.ApplyOK && result.LintOK && result.TestsOK
	result.ExecutionTimeMS = time.Since(start).Milliseconds()
	return result, nil
}

// diffTargetPaths extracts the modified path(s) from a unified diff's
// `+++ b/<path>` header line.
func diffTargetPaths(diff string) []string {
	lines := splitLines(diff)
	if len(lines) < 2 {
		return nil
	}
	const prefix = "+++ b/"
	for _, l := range lines {
		if len(l) > len(prefix) && l[:len(prefix)] == prefix {
			return []string{l[len(prefix):]}
		}
	}
	return nil
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// ApplyLive applies a patch directly against repoRoot, bypassing the
// scratch-worktree isolation. It requires an explicit enablement flag and
// fails closed otherwise ("Live application ... requires an
// explicit enablement flag; otherwise it fails closed with a permission
// error"). Used only by internal/sme/commit.
func ApplyLive(ctx context.Context, repoRoot, diff string, enabled bool) error {
	if !enabled {
		return fmt.Errorf("applier: live application is disabled (permission denied)")
	}
	return applyPatch(ctx, repoRoot, diff)
}

// MaterializeShadow acquires a scratch worktree from repoRoot and applies
// diff into it (with the same single re-anchor repair attempt DryRun
// uses), leaving the worktree in place for the caller to build and exec
// against — unlike DryRun, which tears the worktree down before
// returning. Used by internal/sme/shadow's patched-round adapter, which
// needs the applied tree to survive long enough to compile and run one
// Golden item at a time.
func MaterializeShadow(ctx context.Context, repoRoot, diff string) (dir string, release func(), err error) {
	dir, release, err = AcquireWorktree(repoRoot)
	if err != nil {
		return "", nil, err
	}

	paths := diffTargetPaths(diff)
	var target string
	if len(paths) > 0 {
		target = paths[0]
	}

	ok, fixed, detail := applyCheck(ctx, dir, diff, target)
	if !ok {
		release()
		return "", nil, fmt.Errorf("applier: shadow apply check failed: %s", detail)
	}
	if err := applyPatch(ctx, dir, fixed); err != nil {
		release()
		return "", nil, fmt.Errorf("applier: shadow apply failed: %w", err)
	}
	return dir, release, nil
}
