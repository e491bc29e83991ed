package evoltypes

// ShadowMetrics is the before/after snapshot captured by the Shadow
// Evaluator for a single cohort (baseline or patched).
type ShadowMetrics struct {
	AvgReward float64 `json:"avg_reward"`
	ErrorRate float64 `json:"error_rate"`
	LatencyP95 float64 `json:"latency_p95"`
}

// ShadowDeltas is after-before for each ShadowMetrics field.
type ShadowDeltas struct {
	RewardDelta float64 `json:"reward_delta"`
	ErrorRateDelta float64 `json:"error_rate_delta"`
	LatencyP95Delta float64 `json:"latency_p95_delta"`
}

// ShadowStatus enumerates the terminal states of a shadow evaluation.
type ShadowStatus string

const (
	ShadowOK ShadowStatus = "ok"
	ShadowFailed ShadowStatus = "failed"
	ShadowTimeout ShadowStatus = "timeout"
)

// ShadowEvalResult is the outcome of running a deterministic Golden subset
// twice (baseline vs patched) and computing metric deltas.
type ShadowEvalResult struct {
	PatchID string `json:"patch_id"`
	Status ShadowStatus `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Before ShadowMetrics `json:"before"`
	After ShadowMetrics `json:"after"`
	Deltas ShadowDeltas `json:"deltas"`
	TestsRun int `json:"tests_run"`
	BaselineSamples int `json:"baseline_samples"`
	ExecutionTimeMS int64 `json:"execution_time_ms"`
}

// GuardSeverity classifies a GuardViolation.
type GuardSeverity string

const (
	SeverityWarning GuardSeverity = "warning"
	SeverityCritical GuardSeverity = "critical"
)

// GuardViolation records one tripped threshold check.
type GuardViolation struct {
	GuardName string `json:"guard_name"`
	Threshold float64 `json:"threshold"`
	Actual float64 `json:"actual"`
	Severity GuardSeverity `json:"severity"`
	Description string `json:"description"`
}

// GuardResult is the outcome of running all threshold checks against a
// shadow (or canary) result.
type GuardResult struct {
	PatchID string `json:"patch_id"`
	Passed bool `json:"passed"`
	Violations []GuardViolation `json:"violations,omitempty"`
	MetricsAvailable bool `json:"metrics_available"`
}
