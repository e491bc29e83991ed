// Package guards implements the three threshold checks a shadow (or
// canary) result must clear before a patch can be selected or promoted.
package guards

import "github.com/evolvsys/evolv/pkg/evoltypes"

// Thresholds configures the three guard checks. Zero-value Thresholds is
// never used directly; callers must start from Default or a preset.
type Thresholds struct {
	ErrorRateMax float64
	LatencyP95Regression float64
	RewardDeltaMin float64
}

// Default mirrors guards.py's module-level defaults.
func Default() Thresholds {
	return Thresholds{ErrorRateMax: 0.15, LatencyP95Regression: 500, RewardDeltaMin: -0.05}
}

// Preset names, matching guards.py's GUARD_PRESETS table.
const (
	PresetConservative = "conservative"
	PresetModerate = "moderate"
	PresetPermissive = "permissive"
)

// Preset returns one of the named threshold presets, or Default with
// ok=false if name isn't recognized.
func Preset(name string) (Thresholds, bool) {
	switch name {
	case PresetConservative:
		return Thresholds{ErrorRateMax: 0.05, LatencyP95Regression: 200, RewardDeltaMin: -0.01}, true
	case PresetModerate:
		return Thresholds{ErrorRateMax: 0.10, LatencyP95Regression: 350, RewardDeltaMin: -0.03}, true
	case PresetPermissive:
		return Thresholds{ErrorRateMax: 0.20, LatencyP95Regression: 800, RewardDeltaMin: -0.10}, true
	default:
		return Default(), false
	}
}

// Violations runs all three threshold checks against a shadow result.
// A result with Status != ok has no usable metrics and fails closed.
func Violations(result evoltypes.ShadowEvalResult, thresholds Thresholds) evoltypes.GuardResult {
	out := evoltypes.GuardResult{PatchID: result.PatchID}

	if result.Status != evoltypes.ShadowOK {
		out.MetricsAvailable = false
		out.Passed = false
		return out
	}
	out.MetricsAvailable = true

	if result.After.ErrorRate > thresholds.ErrorRateMax {
		out.Violations = append(out.Violations, evoltypes.GuardViolation{
			GuardName: "error_rate_max",
			Threshold: thresholds.ErrorRateMax,
			Actual: result.After.ErrorRate,
			Severity: evoltypes.SeverityCritical,
			Description: "post-patch error rate exceeds the configured ceiling",
		})
	}

	if result.Deltas.LatencyP95Delta > thresholds.LatencyP95Regression {
		out.Violations = append(out.Violations, evoltypes.GuardViolation{
			GuardName: "latency_p95_regression",
			Threshold: thresholds.LatencyP95Regression,
			Actual: result.Deltas.LatencyP95Delta,
			Severity: evoltypes.SeverityWarning,
			Description: "p95 latency regressed beyond the configured allowance",
		})
	}

	if result.Deltas.RewardDelta < thresholds.RewardDeltaMin {
		out.Violations = append(out.Violations, evoltypes.GuardViolation{
			GuardName: "reward_delta_min",
			Threshold: thresholds.RewardDeltaMin,
			Actual: result.Deltas.RewardDelta,
			Severity: evoltypes.SeverityCritical,
			Description: "reward regressed beyond the configured floor",
		})
	}

	out.Passed = len(out.Violations) == 0
	return out
}

// BatchViolations runs Violations over every result, keyed by patch id.
func BatchViolations(results []evoltypes.ShadowEvalResult, thresholds Thresholds) map[string]evoltypes.GuardResult {
	out := make(map[string]evoltypes.GuardResult, len(results))
	for _, r := range results {
		out[r.PatchID] = Violations(r, thresholds)
	}
	return out
}

// Summary returns a short human-readable description of a GuardResult, for
// logs and API responses.
func Summary(g evoltypes.GuardResult) string {
	if !g.MetricsAvailable {
		return "metrics unavailable, guard check failed closed"
	}
	if g.Passed {
		return "all guards passed"
	}
	descs := make([]string, 0, len(g.Violations))
	for _, v := range g.Violations {
		descs = append(descs, v.GuardName)
	}
	out := "guard violations: "
	for i, d := range descs {
		if i > 0 {
			out += ", "
		}
		out += d
	}
	return out
}
