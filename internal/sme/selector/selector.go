// Package selector ranks shadow-evaluated patch candidates and picks a
// winner.
package selector

import (
	"math"
	"sort"

	"github.com/evolvsys/evolv/internal/sme/guards"
	"github.com/evolvsys/evolv/pkg/evoltypes"
)

// latencyPenaltyPerMS is λ in score = reward_delta - λ·latency_p95_delta
// ("λ small, design-level: 1e-5 per ms").
const latencyPenaltyPerMS = 1e-5

// Candidate is one ranked shadow result.
type Candidate struct {
	PatchID string
	Shadow evoltypes.ShadowEvalResult
	Guard evoltypes.GuardResult
	RankScore float64
	RankPosition int
}

// Result is the full outcome of ranking a batch of candidates.
type Result struct {
	Winner *Candidate
	Candidates []Candidate
	FilteredCount int
	Criteria string
}

// rankScore returns -Inf when the candidate is disqualified (guards
// failed, or reward_delta is unavailable because metrics are missing).
func rankScore(shadow evoltypes.ShadowEvalResult, guard evoltypes.GuardResult) float64 {
	if !guard.Passed || !guard.MetricsAvailable {
		return math.Inf(-1)
	}
	if shadow.Status != evoltypes.ShadowOK {
		return math.Inf(-1)
	}
	return shadow.Deltas.RewardDelta - latencyPenaltyPerMS*shadow.Deltas.LatencyP95Delta
}

// RankAndPick scores every shadow result against its own guard check,
// sorts descending by rank score (ties broken lexicographically by patch
// id for determinism), and picks the first candidate that both passed
// guards and has a finite score as the winner.
func RankAndPick(results []evoltypes.ShadowEvalResult, thresholds guards.Thresholds) Result {
	candidates := make([]Candidate, 0, len(results))
	filtered := 0

	for _, r := range results {
		g := guards.Violations(r, thresholds)
		score := rankScore(r, g)
		if math.IsInf(score, -1) {
			filtered++
		}
		candidates = append(candidates, Candidate{PatchID: r.PatchID, Shadow: r, Guard: g, RankScore: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RankScore != candidates[j].RankScore {
			return candidates[i].RankScore > candidates[j].RankScore
		}
		return candidates[i].PatchID < candidates[j].PatchID
	})

	for i := range candidates {
		candidates[i].RankPosition = i
	}

	var winner *Candidate
	for i := range candidates {
		if candidates[i].Guard.Passed && !math.IsInf(candidates[i].RankScore, -1) {
			w := candidates[i]
			winner = &w
			break
		}
	}

	return Result{
		Winner: winner,
		Candidates: candidates,
		FilteredCount: filtered,
		Criteria: "reward_delta - 1e-5*latency_p95_delta, guards must pass, ties broken by patch id",
	}
}
