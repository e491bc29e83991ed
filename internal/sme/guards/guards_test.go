package guards

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evolvsys/evolv/pkg/evoltypes"
)

func okResult(errorRate, latencyDelta, rewardDelta float64) evoltypes.ShadowEvalResult {
	return evoltypes.ShadowEvalResult{
		PatchID: "p1",
		Status: evoltypes.ShadowOK,
		After: evoltypes.ShadowMetrics{ErrorRate: errorRate},
		Deltas: evoltypes.ShadowDeltas{LatencyP95Delta: latencyDelta, RewardDelta: rewardDelta},
	}
}

func TestViolationsPassesWithinThresholds(t *testing.T) {
	g := Violations(okResult(0.05, 100, 0.02), Default())
	assert.True(t, g.Passed)
	assert.True(t, g.MetricsAvailable)
	assert.Empty(t, g.Violations)
}

func TestViolationsErrorRateMaxCritical(t *testing.T) {
	g := Violations(okResult(0.20, 0, 0), Default())
	assert.False(t, g.Passed)
	assert.Len(t, g.Violations, 1)
	assert.Equal(t, evoltypes.SeverityCritical, g.Violations[0].Severity)
	assert.Equal(t, "error_rate_max", g.Violations[0].GuardName)
}

func TestViolationsLatencyRegressionWarning(t *testing.T) {
	g := Violations(okResult(0, 600, 0), Default())
	assert.False(t, g.Passed)
	assert.Equal(t, evoltypes.SeverityWarning, g.Violations[0].Severity)
}

func TestViolationsRewardDeltaMinCritical(t *testing.T) {
	g := Violations(okResult(0, 0, -0.10), Default())
	assert.False(t, g.Passed)
	assert.Equal(t, evoltypes.SeverityCritical, g.Violations[0].Severity)
}

func TestViolationsMissingMetricsFailsClosed(t *testing.T) {
	result := evoltypes.ShadowEvalResult{PatchID: "p1", Status: evoltypes.ShadowTimeout}
	g := Violations(result, Default())
	assert.False(t, g.Passed)
	assert.False(t, g.MetricsAvailable)
	assert.Empty(t, g.Violations)
}

func TestPresetConservativeIsStricter(t *testing.T) {
	conservative, ok := Preset(PresetConservative)
	assert.True(t, ok)

	g := Violations(okResult(0.08, 0, 0), conservative)
	assert.False(t, g.Passed)

	moderate, _ := Preset(PresetModerate)
	g2 := Violations(okResult(0.08, 0, 0), moderate)
	assert.True(t, g2.Passed)
}

func TestPresetUnknownFallsBackToDefault(t *testing.T) {
	thresholds, ok := Preset("nonexistent")
	assert.False(t, ok)
	assert.Equal(t, Default(), thresholds)
}

func TestBatchViolationsKeyedByPatchID(t *testing.T) {
	results := []evoltypes.ShadowEvalResult{okResult(0.01, 0, 0), {PatchID: "p2", Status: evoltypes.ShadowFailed}}
	results[0].PatchID = "p1"

	out := BatchViolations(results, Default())
	assert.Len(t, out, 2)
	assert.True(t, out["p1"].Passed)
	assert.False(t, out["p2"].Passed)
}
