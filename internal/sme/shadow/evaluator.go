package shadow

import (
	"context"
	"fmt"
	"time"

	"github.com/evolvsys/evolv/pkg/evoltypes"
)

// RoundResult is what one golden-item round reports back to the
// Evaluator: enough to compute avg_reward, error_rate, and latency_p95.
type RoundResult struct {
	Reward float64
	Errored bool
	LatencyMS float64
}

// RoundRunner executes one golden item for iterations steps and reports
// its outcome. The Evaluator is deliberately decoupled from *how* a round
// runs (step 1 runs in-process against the live Evolution
// Runner; step 3 runs against a patched build) — grounded on the same
// narrow-interface-over-concrete-provider idiom internal/evolution uses
// for MemoryPrimer/RAGFetcher/WebFetcher. The baseline round is normally
// backed directly by internal/evolution.Runner with spec.Flags.ShadowMode
// set; the patched round is backed by a build-and-exec adapter (wired at
// the cmd/evolv layer) that runs the shadow worktree's compiled binary so
// the patch's actual code executes, not a copy held in the parent process.
type RoundRunner func(ctx context.Context, item GoldenItem, iterations int) (RoundResult, error)

// Config tunes the evaluator, mirroring the DGM_* environment knobs of
// .
type Config struct {
	CanaryRuns int
	BaselineSamples int
	Iterations int
	Timeout time.Duration
}

// DefaultConfig mirrors the Python system's defaults for these knobs.
func DefaultConfig() Config {
	return Config{CanaryRuns: 10, BaselineSamples: 2, Iterations: 2, Timeout: 120 * time.Second}
}

// Evaluate runs baseline and patched rounds over up to cfg.CanaryRuns
// Golden items and aggregates before/after/deltas. No
// user-visible side effects: callers are expected to pass a baseline
// RoundRunner bound to a Runner configured with Flags.ShadowMode=true.
func Evaluate(ctx context.Context, patchID string, golden []GoldenItem, cfg Config, baseline, patched RoundRunner) evoltypes.ShadowEvalResult {
	result := evoltypes.ShadowEvalResult{PatchID: patchID}
	start := time.Now()

	evalCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	items := Take(golden, cfg.CanaryRuns)
	result.BaselineSamples = cfg.BaselineSamples

	var beforeRewards, afterRewards, beforeLatency, afterLatency []float64
	var beforeErrors, afterErrors int
	var beforeCount, afterCount int

	for round := 0; round < cfg.BaselineSamples; round++ {
		for _, item := range items {
			rr, err := baseline(evalCtx, item, cfg.Iterations)
			if evalCtx.Err() != nil {
				result.Status = evoltypes.ShadowTimeout
				result.ExecutionTimeMS = time.Since(start).Milliseconds()
				return result
			}
			if err != nil {
				result.Status = evoltypes.ShadowFailed
				result.ErrorMessage = err.Error()
				result.ExecutionTimeMS = time.Since(start).Milliseconds()
				return result
			}
			beforeCount++
			beforeRewards = append(beforeRewards, rr.Reward)
			beforeLatency = append(beforeLatency, rr.LatencyMS)
			if rr.Errored {
				beforeErrors++
			}
		}
	}

	result.TestsRun = len(items)

	for _, item := range items {
		rr, err := patched(evalCtx, item, cfg.Iterations)
		if evalCtx.Err() != nil {
			result.Status = evoltypes.ShadowTimeout
			result.ExecutionTimeMS = time.Since(start).Milliseconds()
			return result
		}
		if err != nil {
			result.Status = evoltypes.ShadowFailed
			result.ErrorMessage = err.Error()
			result.ExecutionTimeMS = time.Since(start).Milliseconds()
			return result
		}
		afterCount++
		afterRewards = append(afterRewards, rr.Reward)
		afterLatency = append(afterLatency, rr.LatencyMS)
		if rr.Errored {
			afterErrors++
		}
	}

	result.Before = evoltypes.ShadowMetrics{
		AvgReward: mean(beforeRewards),
		ErrorRate: errorRate(beforeErrors, beforeCount),
		LatencyP95: p95(beforeLatency),
	}
	result.After = evoltypes.ShadowMetrics{
		AvgReward: mean(afterRewards),
		ErrorRate: errorRate(afterErrors, afterCount),
		LatencyP95: p95(afterLatency),
	}
	result.Deltas = evoltypes.ShadowDeltas{
		RewardDelta: result.After.AvgReward - result.Before.AvgReward,
		ErrorRateDelta: result.After.ErrorRate - result.Before.ErrorRate,
		LatencyP95Delta: result.After.LatencyP95 - result.Before.LatencyP95,
	}
	result.Status = evoltypes.ShadowOK
	result.ExecutionTimeMS = time.Since(start).Milliseconds()
	return result
}

func errorRate(errored, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(errored) / float64(total)
}

// NoGoldenItemsError describes a patch that cannot be evaluated for lack
// of any Golden Set data. Evaluate never returns it (it tolerates an
// empty set by producing all-zero metrics), and no caller in this module
// returns it either.
var NoGoldenItemsError = fmt.Errorf("shadow: golden set is empty")
