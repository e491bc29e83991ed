package commit

import (
	"context"
	"fmt"
	"time"

	"github.com/evolvsys/evolv/pkg/evoltypes"
)

// Rollback verifies sha exists in opts.RepoRoot, reverts it with
// `git revert --no-edit`, and updates the stored artifact's status and
// rollback SHA (Rollback steps 1-3).
func Rollback(ctx context.Context, patchID, sha string, opts Options) (evoltypes.CommitArtifact, error) {
	artifact, found, err := opts.Store.Get(patchID)
	if err != nil {
		return evoltypes.CommitArtifact{}, err
	}
	if !found {
		return evoltypes.CommitArtifact{}, fmt.Errorf("commit: no artifact recorded for patch %s", patchID)
	}

	if !commitExists(ctx, opts.RepoRoot, sha) {
		return artifact, fmt.Errorf("commit: target sha %s does not exist", sha)
	}

	rollbackSHA, err := revertNoEdit(ctx, opts.RepoRoot, sha)
	if err != nil {
		return artifact, fmt.Errorf("commit: revert failed: %w", err)
	}

	artifact.Status = evoltypes.CommitRolledBack
	artifact.RollbackSHA = rollbackSHA
	if err := opts.Store.Persist(artifact); err != nil {
		return artifact, err
	}
	return artifact, nil
}

// nowOrDefault returns t if non-zero, else the current time. A
// package-level helper so callers that don't care about a fixed clock (outside
// of tests) don't need to special-case zero values.
func nowOrDefault(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
