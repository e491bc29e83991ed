package reward

import (
	"context"

	"github.com/evolvsys/evolv/pkg/evoltypes"
)

// Input gathers everything ComputeTotalReward needs for one variant,
// mirroring compute_total_reward's parameter list.
type Input struct {
	Task string
	Output string
	OperatorName string
	JudgeOutcome float64
	ExecutionTimeMS int64
	ExecutionContext ExecutionContext
	TestCmd string
	TestWeight float64
	HumanRatings []int
	EvalOverheadMS int64
	Baseline *TaskBaseline // nil uses DefaultBaseline(Task)
}

// ComputeTotalReward runs the full outcome/process/cost pipeline and
// returns both the structured breakdown and the scalar total_reward,
// mirroring compute_total_reward's (reward_breakdown, total_reward) tuple.
// total_reward = outcome + process·m_proc − cost·m_cost, with
// tuning multipliers read fresh from storage/tuning.json each call.
func ComputeTotalReward(ctx context.Context, in Input) (evoltypes.RewardBreakdown, float64) {
	outcome, outcomeMeta := ComputeOutcomeReward(ctx, in.JudgeOutcome, in.Output, in.TestCmd, in.TestWeight, in.HumanRatings)
	process := ComputeProcessReward(in.Output, in.ExecutionContext, in.OperatorName)

	baseline := DefaultBaseline(in.Task)
	if in.Baseline != nil {
		baseline = *in.Baseline
	}

	cost := ComputeCostPenalty(in.ExecutionTimeMS, in.ExecutionContext.TokensIn, in.ExecutionContext.TokensOut, in.ExecutionContext.ToolCalls, baseline)
	cost += EvalOverheadPenalty(in.EvalOverheadMS, baseline)
	if cost > costPenaltyCap {
		cost = costPenaltyCap
	}

	tuning := LoadTuning()
	tunedProcess := process * tuning.ProcessMultiplier
	tunedCost := cost * tuning.CostMultiplier

	total := outcome + tunedProcess - tunedCost
	total = evoltypes.FiniteOr(total, 0)

	breakdown := evoltypes.RewardBreakdown{
		Outcome: evoltypes.FiniteOr(outcome, 0),
		Process: evoltypes.FiniteOr(tunedProcess, 0),
		Cost: evoltypes.FiniteOr(tunedCost, 0),
		Metadata: map[string]any{
			"outcome_method": outcomeMeta.Method,
			"test_applied": outcomeMeta.TestApplied,
			"test_score": outcomeMeta.TestScore,
			"test_error": outcomeMeta.TestError,
			"human_rating_score": outcomeMeta.HumanRatingScore,
			"human_modifier": outcomeMeta.HumanModifier,
			"pre_human_score": outcomeMeta.PreHumanScore,
			"evaluation_overhead": outcomeMeta.EvaluationOverhead,
			"process_multiplier": tuning.ProcessMultiplier,
			"cost_multiplier": tuning.CostMultiplier,
		},
	}

	return breakdown, total
}
