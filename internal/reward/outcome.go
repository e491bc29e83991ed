package reward

import "context"

// OutcomeMetadata captures the outcome-reward computation's breakdown,
// mirroring rewards.py's metadata dict for persistence/debugging.
type OutcomeMetadata struct {
	Method string
	TestApplied bool
	TestScore *float64
	TestError string
	HumanRatingScore *int
	HumanModifier *float64
	PreHumanScore *float64
	EvaluationOverhead int64
}

// HumanRatingModifier converts a 1..10 human rating into the multiplier h
// applied to the outcome score: 1..4 → 0.2..0.8 linearly,
// 5 → 1.0, 6..10 → 1.2..2.0 linearly.
func HumanRatingModifier(rating int) float64 {
	switch {
	case rating < 5:
		return 0.2 + float64(rating-1)*0.2
	case rating == 5:
		return 1.0
	default:
		return 1.0 + float64(rating-5)*0.2
	}
}

// ComputeOutcomeReward blends the Judge Panel's outcome score with an
// optional external test command and an optional human rating, mirroring
// compute_outcome_reward. judgeOutcome is the already-blended Judge Panel
// score rather than this module re-deriving it, since Judge
// Panel is its own package (internal/judge).
func ComputeOutcomeReward(ctx context.Context, judgeOutcome float64, output, testCmd string, testWeight float64, humanRatings []int) (float64, OutcomeMetadata) {
	meta := OutcomeMetadata{Method: "judge_panel"}
	score := judgeOutcome

	if testCmd != "" && testWeight > 0 {
		ok, err := RunTestCommand(ctx, testCmd, output)
		if err != nil {
			meta.TestError = err.Error()
		} else {
			testScore := 0.0
			if ok {
				testScore = 1.0
			}
			score = (1-testWeight)*score + testWeight*testScore
			meta.TestApplied = true
			meta.TestScore = &testScore
		}
	}

	if len(humanRatings) > 0 {
		rating := humanRatings[len(humanRatings)-1]
		modifier := HumanRatingModifier(rating)
		pre := score
		score = clamp01(score * modifier)

		meta.HumanRatingScore = &rating
		meta.HumanModifier = &modifier
		meta.PreHumanScore = &pre
	}

	return score, meta
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
