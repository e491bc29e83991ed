package reward

import "strings"

// TaskBaseline holds the fixed per-task-class cost reference point
// (rewards.py get_default_baseline / baseline table).
type TaskBaseline struct {
	TimeMS int64
	Tokens int
}

var (
	codeKeywords = []string{"code", "function", "class", "implement", "python", "javascript"}
	analysisKeywords = []string{"analyze", "review", "explain", "compare"}
)

// DefaultBaseline classifies a task string into one of three fixed
// baselines: code (45s/3000tok), analysis (35s/2500tok), default (25s/1500tok).
func DefaultBaseline(task string) TaskBaseline {
	lower := strings.ToLower(task)
	if containsAny(lower, codeKeywords) {
		return TaskBaseline{TimeMS: 45000, Tokens: 3000}
	}
	if containsAny(lower, analysisKeywords) {
		return TaskBaseline{TimeMS: 35000, Tokens: 2500}
	}
	return TaskBaseline{TimeMS: 25000, Tokens: 1500}
}
