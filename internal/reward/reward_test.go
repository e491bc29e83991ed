package reward

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasStructuredReasoningRequiresTwoPatterns(t *testing.T) {
	assert.False(t, HasStructuredReasoning("just a sentence"))
	assert.True(t, HasStructuredReasoning("First, consider the input. Then, because it matters, proceed."))
}

func TestComputeProcessRewardCapsAtHalf(t *testing.T) {
	output := `First, note that this matters. Because it does, here is code:
class Solver:
 def solve(n):
 """Returns n doubled."""
 # doubles n and returns it
 try:
 return n * 2
 except Exception:
 raise
`
	reward := ComputeProcessReward(output, ExecutionContext{ToolSuccessRate: 1.0}, "change_system")
	assert.LessOrEqual(t, reward, 0.5)
	assert.Greater(t, reward, 0.3)
}

func TestComputeProcessRewardOperatorBonus(t *testing.T) {
	output := "Here is an example of the pattern, e.g. a simple case."
	withBonus := ComputeProcessReward(output, ExecutionContext{}, "add_fewshot")
	withoutBonus := ComputeProcessReward(output, ExecutionContext{}, "change_system")
	assert.InDelta(t, withoutBonus+0.05, withBonus, 1e-9)
}

func TestDefaultBaselineClassification(t *testing.T) {
	assert.Equal(t, TaskBaseline{TimeMS: 45000, Tokens: 3000}, DefaultBaseline("implement a function in python"))
	assert.Equal(t, TaskBaseline{TimeMS: 35000, Tokens: 2500}, DefaultBaseline("analyze this report"))
	assert.Equal(t, TaskBaseline{TimeMS: 25000, Tokens: 1500}, DefaultBaseline("say hello"))
}

func TestComputeCostPenaltyCapsAtOne(t *testing.T) {
	baseline := TaskBaseline{TimeMS: 1000, Tokens: 100}
	penalty := ComputeCostPenalty(1000000, 0, 0, 1000, baseline)
	assert.Equal(t, 1.0, penalty)
}

func TestComputeCostPenaltyBelowBaselineIsZero(t *testing.T) {
	baseline := TaskBaseline{TimeMS: 30000, Tokens: 2000}
	penalty := ComputeCostPenalty(5000, 100, 100, 0, baseline)
	assert.Equal(t, 0.0, penalty)
}

func TestHumanRatingModifier(t *testing.T) {
	assert.InDelta(t, 0.2, HumanRatingModifier(1), 1e-9)
	assert.InDelta(t, 0.8, HumanRatingModifier(4), 1e-9)
	assert.InDelta(t, 1.0, HumanRatingModifier(5), 1e-9)
	assert.InDelta(t, 1.2, HumanRatingModifier(6), 1e-9)
	assert.InDelta(t, 2.0, HumanRatingModifier(10), 1e-9)
}

func TestComputeOutcomeRewardAppliesHumanModifier(t *testing.T) {
	score, meta := ComputeOutcomeReward(context.Background(), 0.5, "output", "", 0, []int{10})
	assert.InDelta(t, 1.0, score, 1e-9)
	assert.NotNil(t, meta.HumanModifier)
	assert.InDelta(t, 2.0, *meta.HumanModifier, 1e-9)
}

func TestComputeOutcomeRewardClampsAtOne(t *testing.T) {
	score, _ := ComputeOutcomeReward(context.Background(), 0.9, "output", "", 0, []int{10})
	assert.Equal(t, 1.0, score)
}

func TestComputeTotalRewardFormula(t *testing.T) {
	TuningPath = "/nonexistent/tuning.json"
	breakdown, total := ComputeTotalReward(context.Background(), Input{
		Task: "say hello",
		Output: "hi there",
		OperatorName: "change_system",
		JudgeOutcome: 0.7,
		ExecutionTimeMS: 1000,
		Baseline: &TaskBaseline{TimeMS: 25000, Tokens: 1500},
	})
	assert.InDelta(t, breakdown.Outcome+breakdown.Process-breakdown.Cost, total, 1e-9)
}
