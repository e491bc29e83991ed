package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolvsys/evolv/internal/sme/guards"
	"github.com/evolvsys/evolv/pkg/evoltypes"
)

func shadowOK(id string, rewardDelta, latencyDelta, errorRate float64) evoltypes.ShadowEvalResult {
	return evoltypes.ShadowEvalResult{
		PatchID: id,
		Status: evoltypes.ShadowOK,
		After: evoltypes.ShadowMetrics{ErrorRate: errorRate},
		Deltas: evoltypes.ShadowDeltas{RewardDelta: rewardDelta, LatencyP95Delta: latencyDelta},
	}
}

func TestRankAndPickPrefersHigherRewardDelta(t *testing.T) {
	results := []evoltypes.ShadowEvalResult{
		shadowOK("low", 0.02, 0, 0),
		shadowOK("high", 0.10, 0, 0),
	}
	res := RankAndPick(results, guards.Default())
	require.NotNil(t, res.Winner)
	assert.Equal(t, "high", res.Winner.PatchID)
}

func TestRankAndPickPenalizesLatency(t *testing.T) {
	results := []evoltypes.ShadowEvalResult{
		shadowOK("fast", 0.05, 0, 0),
		shadowOK("slow", 0.051, 100000, 0), // huge latency delta outweighs the tiny reward edge
	}
	res := RankAndPick(results, guards.Default())
	require.NotNil(t, res.Winner)
	assert.Equal(t, "fast", res.Winner.PatchID)
}

func TestRankAndPickDisqualifiesFailedGuards(t *testing.T) {
	results := []evoltypes.ShadowEvalResult{
		shadowOK("bad", 0.30, 0, 0.9), // error rate blows the guard
		shadowOK("ok", 0.01, 0, 0.01),
	}
	res := RankAndPick(results, guards.Default())
	require.NotNil(t, res.Winner)
	assert.Equal(t, "ok", res.Winner.PatchID)
	assert.Equal(t, 1, res.FilteredCount)
}

func TestRankAndPickMissingRewardDeltaDisqualifies(t *testing.T) {
	results := []evoltypes.ShadowEvalResult{
		{PatchID: "timeout", Status: evoltypes.ShadowTimeout},
	}
	res := RankAndPick(results, guards.Default())
	assert.Nil(t, res.Winner)
	assert.Equal(t, 1, res.FilteredCount)
}

func TestRankAndPickTieBreaksByPatchID(t *testing.T) {
	results := []evoltypes.ShadowEvalResult{
		shadowOK("zzz", 0.05, 0, 0),
		shadowOK("aaa", 0.05, 0, 0),
	}
	res := RankAndPick(results, guards.Default())
	require.NotNil(t, res.Winner)
	assert.Equal(t, "aaa", res.Winner.PatchID)
}

func TestRankAndPickNoCandidatesReturnsNilWinner(t *testing.T) {
	res := RankAndPick(nil, guards.Default())
	assert.Nil(t, res.Winner)
	assert.Empty(t, res.Candidates)
}
