package judge

import "strings"

// SystemPrompt builds the judge's structured-evaluation system prompt
// around a task/assertions rubric.
func SystemPrompt(task string, assertions []string) string {
	var b strings.Builder
	b.WriteString("You are an impartial evaluator scoring a model's response to a task.\n")
	b.WriteString("Task:\n")
	b.WriteString(task)
	b.WriteString("\n\n")
	if len(assertions) > 0 {
		b.WriteString("The response should satisfy these assertions:\n")
		for _, a := range assertions {
			b.WriteString("- ")
			b.WriteString(a)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Respond with strict JSON only, no markdown fencing, matching exactly:\n")
	b.WriteString(`{"score": <number 0..1>, "reasoning": "<short>", "strengths": ["..."], "weaknesses": ["..."]}`)
	return b.String()
}

// EvaluatorPrompt wraps the output under evaluation, adapted from the
// teacher's judge.EvaluatorPrompt.
func EvaluatorPrompt(output string) string {
	return "Response to evaluate:\n" + output
}

// TieBreakPrompt builds the tie-breaker prompt, embedding both prior
// judge evaluations, : "a third model ... is invoked with
// both prior evaluations embedded in the prompt".
func TieBreakPrompt(output string, first, second JudgeScore) string {
	var b strings.Builder
	b.WriteString(EvaluatorPrompt(output))
	b.WriteString("\n\nTwo prior judges disagreed:\n")
	b.WriteString("Judge A scored ")
	b.WriteString(formatScore(first.Score))
	b.WriteString(": ")
	b.WriteString(first.Reasoning)
	b.WriteString("\nJudge B scored ")
	b.WriteString(formatScore(second.Score))
	b.WriteString(": ")
	b.WriteString(second.Reasoning)
	b.WriteString("\n\nGive your own final, independent score.")
	return b.String()
}

func formatScore(s float64) string {
	return trimTrailingZeros(s)
}
