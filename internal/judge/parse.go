package judge

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// JudgeScore is a single judge model's strict-JSON response, :
// "{score ∈ [0,1], reasoning, strengths[], weaknesses[]}".
type JudgeScore struct {
	Score float64 `json:"score"`
	Reasoning string `json:"reasoning"`
	Strengths []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// jsonBlock extracts the span from the first '{' to the last '}' in text, tolerating
// judges that wrap JSON in prose or markdown fences despite instructions,
// the same salvage leniency the Proposer's diff extraction uses.
var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

// ParseJudgeScore parses a judge's raw response into a JudgeScore. Returns
// an error (not a conservative default) on parse failure: a parse failure
// becomes a per-judge error record, and that judge is excluded from
// averaging.
func ParseJudgeScore(raw string) (JudgeScore, error) {
	match := jsonBlock.FindString(raw)
	if match == "" {
		return JudgeScore{}, fmt.Errorf("judge response contains no JSON object")
	}

	var s JudgeScore
	if err := json.Unmarshal([]byte(match), &s); err != nil {
		return JudgeScore{}, fmt.Errorf("judge response JSON invalid: %w", err)
	}
	if s.Score < 0 || s.Score > 1 {
		return JudgeScore{}, fmt.Errorf("judge score %v out of [0,1] range", s.Score)
	}
	return s, nil
}

func trimTrailingZeros(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
