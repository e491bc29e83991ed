package commit

import (
	"testing"

	"github.com/evolvsys/evolv/pkg/evoltypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePersistAndGet(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	artifact := evoltypes.CommitArtifact{PatchID: "p1", Status: evoltypes.CommitCommitted, Timestamp: fixedNow}
	require.NoError(t, store.Persist(artifact))

	got, found, err := store.Get("p1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, evoltypes.CommitCommitted, got.Status)
}

func TestStoreRecountsStatusCounters(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Persist(evoltypes.CommitArtifact{PatchID: "p1", Status: evoltypes.CommitCommitted, Timestamp: fixedNow}))
	require.NoError(t, store.Persist(evoltypes.CommitArtifact{PatchID: "p2", Status: evoltypes.CommitRolledBack, Timestamp: fixedNow}))
	require.NoError(t, store.Persist(evoltypes.CommitArtifact{PatchID: "p3", Status: evoltypes.CommitFailed, Timestamp: fixedNow}))

	idx, err := store.loadIndex()
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Committed)
	assert.Equal(t, 1, idx.RolledBack)
	assert.Equal(t, 1, idx.Failed)
}

func TestStoreGetMissingReturnsFalse(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, found, err := store.Get("nope")
	require.NoError(t, err)
	assert.False(t, found)
}
