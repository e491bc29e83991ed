package memory

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "evolv-memory-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := Open(dir+"/memory.db", cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAddRejectsBelowRewardFloor(t *testing.T) {
	store := openTestStore(t, DefaultConfig())
	exp := NewExperience("code", "write a sort function", "{}", "raise_temp", "def sort: pass",
		0.1, 0.9, 0.8, 0.8, 10, 20, 100, []float64{1, 0}, 0.5, time.Now())

	accepted, err := store.Add(context.Background(), exp)
	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestAddRejectsDuplicateInputHash(t *testing.T) {
	store := openTestStore(t, DefaultConfig())
	exp := NewExperience("code", "write a sort function", "{}", "raise_temp", "def sort: pass",
		0.9, 0.9, 0.8, 0.8, 10, 20, 100, []float64{1, 0}, 0.5, time.Now())

	accepted, err := store.Add(context.Background(), exp)
	require.NoError(t, err)
	assert.True(t, accepted)

	exp2 := exp
	exp2.ID = "different-id"
	accepted2, err := store.Add(context.Background(), exp2)
	require.NoError(t, err)
	assert.False(t, accepted2)
}

func TestAddAcceptsQualifyingExperience(t *testing.T) {
	store := openTestStore(t, DefaultConfig())
	exp := NewExperience("code", "write a sort function", "{}", "raise_temp", "def sort: pass",
		0.9, 0.9, 0.8, 0.8, 10, 20, 100, []float64{1, 0}, 0.5, time.Now())

	accepted, err := store.Add(context.Background(), exp)
	require.NoError(t, err)
	assert.True(t, accepted)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEnforceSizeLimitEvictsLRU(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StoreMaxSize = 20 // maxPerClass = 2
	store := openTestStore(t, cfg)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		exp := NewExperience("code", "distinct input "+string(rune('a'+i)), "{}", "raise_temp", "out",
			0.9, 0.9, 0.8, 0.8, 10, 20, 100, []float64{1, 0}, 0.5, now.Add(time.Duration(i)*time.Minute))
		accepted, err := store.Add(ctx, exp)
		require.NoError(t, err)
		assert.True(t, accepted)
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSearchRanksBySimilarityRewardAndRecency(t *testing.T) {
	store := openTestStore(t, DefaultConfig())
	ctx := context.Background()
	now := time.Now()

	closeMatch := NewExperience("code", "input one", "{}", "raise_temp", "out1",
		0.6, 0.9, 0.8, 0.8, 10, 20, 100, []float64{1, 0, 0}, 0.5, now)
	farMatch := NewExperience("code", "input two", "{}", "raise_temp", "out2",
		0.95, 0.9, 0.8, 0.8, 10, 20, 100, []float64{0, 1, 0}, 0.5, now)

	_, err := store.Add(ctx, closeMatch)
	require.NoError(t, err)
	_, err = store.Add(ctx, farMatch)
	require.NoError(t, err)

	results, err := store.Search(ctx, []float64{1, 0, 0}, "code", 2, 0, now)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, closeMatch.ID, results[0].ID)
}

func TestSearchTouchesLastUsedAt(t *testing.T) {
	store := openTestStore(t, DefaultConfig())
	ctx := context.Background()
	now := time.Now()

	exp := NewExperience("code", "input one", "{}", "raise_temp", "out1",
		0.9, 0.9, 0.8, 0.8, 10, 20, 100, []float64{1, 0}, 0.5, now)
	_, err := store.Add(ctx, exp)
	require.NoError(t, err)

	results, err := store.Search(ctx, []float64{1, 0}, "code", 1, 0, now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].LastUsedAt.IsZero())
}

func TestFuzzyMatchingFindsAliasedTaskClass(t *testing.T) {
	store := openTestStore(t, DefaultConfig())
	ctx := context.Background()
	now := time.Now()

	exp := NewExperience("coding", "input one", "{}", "raise_temp", "out1",
		0.9, 0.9, 0.8, 0.8, 10, 20, 100, []float64{1, 0}, 0.5, now)
	_, err := store.Add(ctx, exp)
	require.NoError(t, err)

	results, err := store.Search(ctx, []float64{1, 0}, "code", 1, 0, now)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestNewExperienceComputesImprovementDeltaAndHash(t *testing.T) {
	exp := NewExperience("analysis", "some input", "{}", "toggle_web", "some output",
		0.75, 0.8, 0.7, 0.6, 5, 10, 50, []float64{0.1, 0.2}, 0.5, time.Now())

	assert.InDelta(t, 0.25, exp.ImprovementDelta, 1e-9)
	assert.Len(t, exp.InputHash, 16)
	assert.Equal(t, "analysis", exp.NormalizedTaskClass)
}

func TestNormalizeTaskClassAliases(t *testing.T) {
	assert.Equal(t, "code", normalizeTaskClass("coding"))
	assert.Equal(t, "writing", normalizeTaskClass("creative"))
	assert.Equal(t, "business", normalizeTaskClass("strategy"))
	assert.Equal(t, "research", normalizeTaskClass("lookup"))
	assert.Equal(t, "general", normalizeTaskClass("unknown-thing"))
}
