package evoltypes

import (
	"time"

	"github.com/evolvsys/evolv/pkg/recipe"
)

// Run owns many Variants: one invocation of the Evolution Runner.
type Run struct {
	ID string `json:"id"`
	TaskClass string `json:"task_class"`
	Task string `json:"task"`
	Assertions []string `json:"assertions,omitempty"`
	StartedAt time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	BestVariantID string `json:"best_variant_id,omitempty"`
	BestScore *float64 `json:"best_score,omitempty"`
	BestTotalReward *float64 `json:"best_total_reward,omitempty"`
	OperatorSequence []string `json:"operator_sequence"`
	Config map[string]any `json:"config,omitempty"`
}

// Finalize stamps FinishedAt and normalizes best-score/best-total-reward per
// the run-level invariant (never non-finite when surfaced externally).
func (r *Run) Finalize(now time.Time, bestScore, bestTotalReward float64, haveBest bool) {
	r.FinishedAt = &now
	if !haveBest {
		r.BestScore = nil
		r.BestTotalReward = nil
		return
	}
	r.BestScore = FiniteOrNil(bestScore)
	r.BestTotalReward = FiniteOrNil(bestTotalReward)
}

// RewardBreakdown carries the three components that sum to TotalReward.
type RewardBreakdown struct {
	Outcome float64 `json:"outcome"`
	Process float64 `json:"process"`
	Cost float64 `json:"cost"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Variant is one completed iteration of the evolution loop.
type Variant struct {
	ID string `json:"id"`
	RunID string `json:"run_id"`
	Recipe recipe.Recipe `json:"recipe"`
	Prompt string `json:"prompt"`
	Output string `json:"output"`
	Score float64 `json:"score"`
	TotalReward float64 `json:"total_reward"`
	OutcomeReward float64 `json:"outcome_reward"`
	ProcessReward float64 `json:"process_reward"`
	CostPenalty float64 `json:"cost_penalty"`
	RewardMetadata map[string]any `json:"reward_metadata,omitempty"`
	Operator string `json:"operator"`
	Groups recipe.OperatorGroup `json:"groups"`
	LatencyMS int64 `json:"latency_ms"`
	ModelID string `json:"model_id"`
	CreatedAt time.Time `json:"created_at"`
	HumanRatings []int `json:"human_ratings,omitempty"`
}

// AddHumanRating records a 1..10 human rating for this variant.
func (v *Variant) AddHumanRating(rating int) {
	if rating < 1 || rating > 10 {
		return
	}
	v.HumanRatings = append(v.HumanRatings, rating)
}
