package commit

import (
	"context"
	"fmt"
	"time"

	"github.com/evolvsys/evolv/pkg/evoltypes"
	"github.com/evolvsys/evolv/pkg/metrics"
)

// branchPrefix names the short-lived branch a commit works on. Domain
// name, not a literal port of any upstream naming scheme.
const branchPrefix = "evolv-patch-"

// branchName builds a short-lived branch name for patchID at ts.
func branchName(patchID string, ts time.Time) string {
	shortID := patchID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	return fmt.Sprintf("%s%s-%d", branchPrefix, shortID, ts.Unix())
}

// commitMessage embeds patch id, area, and reward delta in a structured
// message.
func commitMessage(patch evoltypes.MetaPatch, rewardDelta *float64) string {
	delta := "n/a"
	if rewardDelta != nil {
		delta = fmt.Sprintf("%+.4f", *rewardDelta)
	}
	return fmt.Sprintf("evolve(%s): apply patch %s (reward_delta=%s)", patch.Area, patch.ID, delta)
}

// Options configures Commit.
type Options struct {
	RepoRoot string
	Store Store
	RunTests bool
	RewardDelta *float64
	Now time.Time

	// Metrics, when set, receives a committed-patch counter. Optional.
	Metrics *metrics.Metrics
}

// Commit runs the full commit flow against opts.RepoRoot:
// create a short-lived branch, apply the patch, run tests if requested,
// commit with a structured message, fast-forward (or fall back to
// merge) onto the original branch, delete the temp branch, and persist
// a CommitArtifact. Every step failure leaves the working tree on its
// original branch where possible ("partial failures attempt to
// leave the working tree on the original branch").
func Commit(ctx context.Context, patch evoltypes.MetaPatch, opts Options) (evoltypes.CommitArtifact, error) {
	now := nowOrDefault(opts.Now)
	artifact := evoltypes.CommitArtifact{
		PatchID: patch.ID,
		Timestamp: now,
		Diff: patch.UnifiedDiff,
		LOCDelta: patch.LOCDelta,
		RewardDelta: opts.RewardDelta,
		Status: evoltypes.CommitFailed,
	}

	clean, err := isCleanIndex(ctx, opts.RepoRoot)
	if err != nil {
		return persistFailed(opts, artifact, fmt.Errorf("commit: check clean index: %w", err))
	}
	if !clean {
		return persistFailed(opts, artifact, fmt.Errorf("commit: working tree is not clean"))
	}

	baseBranch, err := currentBranch(ctx, opts.RepoRoot)
	if err != nil {
		return persistFailed(opts, artifact, fmt.Errorf("commit: determine base branch: %w", err))
	}

	branch := branchName(patch.ID, now)
	if err := createBranch(ctx, opts.RepoRoot, branch); err != nil {
		return persistFailed(opts, artifact, fmt.Errorf("commit: create branch: %w", err))
	}

	cleanupBranch := func() {
		_ = checkoutBranch(ctx, opts.RepoRoot, baseBranch)
		_ = deleteBranch(ctx, opts.RepoRoot, branch)
	}

	if err := applyPatchForCommit(ctx, opts.RepoRoot, patch.UnifiedDiff); err != nil {
		cleanupBranch()
		return persistFailed(opts, artifact, fmt.Errorf("commit: apply patch: %w", err))
	}

	if opts.RunTests {
		if ok, out := runTestsForCommit(ctx, opts.RepoRoot); !ok {
			artifact.TestResults = out
			cleanupBranch()
			return persistFailed(opts, artifact, fmt.Errorf("commit: tests failed on patch branch"))
		}
	}

	sha, err := commitAll(ctx, opts.RepoRoot, commitMessage(patch, opts.RewardDelta))
	if err != nil {
		cleanupBranch()
		return persistFailed(opts, artifact, fmt.Errorf("commit: commit patch: %w", err))
	}
	artifact.CommitSHA = sha

	if err := checkoutBranch(ctx, opts.RepoRoot, baseBranch); err != nil {
		return persistFailed(opts, artifact, fmt.Errorf("commit: checkout base branch: %w", err))
	}
	if err := mergeFastForwardOrFallback(ctx, opts.RepoRoot, branch); err != nil {
		return persistFailed(opts, artifact, fmt.Errorf("commit: merge patch branch: %w", err))
	}
	_ = deleteBranch(ctx, opts.RepoRoot, branch)

	artifact.Status = evoltypes.CommitCommitted
	if opts.Metrics != nil {
		opts.Metrics.IncPatchCommitted()
	}
	if err := opts.Store.Persist(artifact); err != nil {
		return artifact, err
	}
	return artifact, nil
}

func persistFailed(opts Options, artifact evoltypes.CommitArtifact, cause error) (evoltypes.CommitArtifact, error) {
	artifact.Status = evoltypes.CommitFailed
	_ = opts.Store.Persist(artifact)
	return artifact, cause
}
