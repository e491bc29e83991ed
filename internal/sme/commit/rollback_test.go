package commit

import (
	"context"
	"testing"

	"github.com/evolvsys/evolv/pkg/evoltypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollbackRevertsCommittedPatch(t *testing.T) {
	repo := initGitRepo(t)
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	patch := evoltypes.MetaPatch{ID: "patch-010", Area: evoltypes.AreaBandit, UnifiedDiff: validDiff()}
	artifact, err := Commit(context.Background(), patch, Options{RepoRoot: repo, Store: store, Now: fixedNow})
	require.NoError(t, err)

	rolled, err := Rollback(context.Background(), "patch-010", artifact.CommitSHA, Options{RepoRoot: repo, Store: store})
	require.NoError(t, err)
	assert.Equal(t, evoltypes.CommitRolledBack, rolled.Status)
	assert.NotEmpty(t, rolled.RollbackSHA)
}

func TestRollbackFailsOnUnknownPatch(t *testing.T) {
	repo := initGitRepo(t)
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = Rollback(context.Background(), "missing", "deadbeef", Options{RepoRoot: repo, Store: store})
	assert.Error(t, err)
}

func TestRollbackFailsOnMissingSHA(t *testing.T) {
	repo := initGitRepo(t)
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	patch := evoltypes.MetaPatch{ID: "patch-011", Area: evoltypes.AreaBandit, UnifiedDiff: validDiff()}
	_, err = Commit(context.Background(), patch, Options{RepoRoot: repo, Store: store, Now: fixedNow})
	require.NoError(t, err)

	_, err = Rollback(context.Background(), "patch-011", "0000000000000000000000000000000000000000", Options{RepoRoot: repo, Store: store})
	assert.Error(t, err)
}
