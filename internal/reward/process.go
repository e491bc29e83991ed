// Package reward implements the compound reward pipeline:
// outcome (judge blend + test command + human rating modifier), process
// (bounded additive heuristics), and cost (time/token/tool/eval overhead).
//
// The constants here (not just the shape) are load-bearing: they were
// tuned empirically and must not drift when this package is touched.
package reward

import (
	"regexp"
	"strings"
)

// processRewardCap bounds compute_process_reward's additive bonuses
// (rewards.py: "Cap at 0.5").
const processRewardCap = 0.5

var reasoningPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:first|second|third|next|then|finally)`),
	regexp.MustCompile(`(?i)(?:because|since|therefore|thus|hence)`),
	regexp.MustCompile(`(?i)(?:step \d+|phase \d+|\d+\))`),
	regexp.MustCompile(`(?i)(?:consider|note that|important)`),
}

// HasStructuredReasoning reports whether output matches at least two of
// the four reasoning-pattern families.
func HasStructuredReasoning(output string) bool {
	count := 0
	for _, p := range reasoningPatterns {
		if p.MatchString(output) {
			count++
		}
	}
	return count >= 2
}

var codeIndicators = []string{"def ", "function", "class ", "import ", "from ", "{", "}", "()", "[]"}

// IsCodeRelated reports whether output contains at least two code
// indicator substrings.
func IsCodeRelated(output string) bool {
	count := 0
	for _, ind := range codeIndicators {
		if strings.Contains(output, ind) {
			count++
		}
	}
	return count >= 2
}

var (
	pythonFuncPattern = regexp.MustCompile(`def\s+\w+\s*\([^)]*\)\s*:`)
	jsFuncPattern = regexp.MustCompile(`function\s+\w+\s*\([^)]*\)\s*\{`)
)

// HasProperFunctions reports whether output contains a well-formed
// Python- or JS-style function definition.
func HasProperFunctions(output string) bool {
	return pythonFuncPattern.MatchString(output) || jsFuncPattern.MatchString(output)
}

var errorPatterns = []string{"try:", "except", "catch", "throw", "raise", "if.*error", "error.*handling"}

// HasErrorHandling reports whether output contains an error-handling
// keyword or pattern (case-insensitive substring match).
func HasErrorHandling(output string) bool {
	lower := strings.ToLower(output)
	for _, p := range errorPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

var docPatterns = []string{`"""`, "'''", "//", "#", "/**", "*/", "Args:", "Returns:"}

// HasDocumentation reports whether output contains at least two
// documentation/comment markers.
func HasDocumentation(output string) bool {
	count := 0
	for _, p := range docPatterns {
		if strings.Contains(output, p) {
			count++
		}
	}
	return count >= 2
}

var examplePatterns = []string{"example", "for instance", "e.g.", "such as", "like this"}

// HasExamples reports whether output references an example.
func HasExamples(output string) bool {
	return containsAny(strings.ToLower(output), examplePatterns)
}

var referencePatterns = []string{"according to", "based on", "reference", "source", "documented"}

// HasReferences reports whether output cites an external source.
func HasReferences(output string) bool {
	return containsAny(strings.ToLower(output), referencePatterns)
}

var (
	creativeWords = []string{"innovative", "creative", "unique", "novel", "original"}
	structuredWords = []string{"systematic", "structured", "organized", "methodical"}
)

// HasCreativityBalance reports whether output contains both a creative
// and a structured word, the signal for temperature-operator bonuses.
func HasCreativityBalance(output string) bool {
	lower := strings.ToLower(output)
	return countAny(lower, creativeWords) > 0 && countAny(lower, structuredWords) > 0
}

var webSignals = []string{
	"according to", "based on", "research shows", "studies indicate",
	"current", "recent", "latest", "up-to-date", "as of",
	"source:", "reference:", "cited", "documentation",
	"web search", "online", "internet", "website", "url",
	"found that", "reported", "published", "article", "paper",
}

// HasWebContext reports whether output shows at least two distinct web-
// search-context signals.
func HasWebContext(output string) bool {
	return countAny(strings.ToLower(output), webSignals) >= 2
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func countAny(haystack string, needles []string) int {
	count := 0
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			count++
		}
	}
	return count
}

// ExecutionContext carries runtime signals process/cost scoring needs,
// mirroring rewards.py's execution_context dict.
type ExecutionContext struct {
	ToolSuccessRate float64 // defaults to 1.0 when absent, set by caller
	ToolCalls int
	TokensIn int
	TokensOut int
}

// ComputeProcessReward mirrors compute_process_reward exactly: structured
// reasoning (+0.1), code quality signals (+0.1/+0.05/+0.05), tool success
// rate contribution (rate*0.1), and operator-specific bonuses, capped at 0.5.
func ComputeProcessReward(output string, ctx ExecutionContext, operatorName string) float64 {
	var process float64

	if HasStructuredReasoning(output) {
		process += 0.1
	}

	if IsCodeRelated(output) {
		if HasProperFunctions(output) {
			process += 0.1
		}
		if HasErrorHandling(output) {
			process += 0.05
		}
		if HasDocumentation(output) {
			process += 0.05
		}
	}

	process += ctx.ToolSuccessRate * 0.1

	switch operatorName {
	case "add_fewshot":
		if HasExamples(output) {
			process += 0.05
		}
	case "inject_rag":
		if HasReferences(output) {
			process += 0.05
		}
	case "toggle_web":
		if HasWebContext(output) {
			process += 0.05
		}
	case "raise_temp", "lower_temp":
		if HasCreativityBalance(output) {
			process += 0.03
		}
	}

	if process > processRewardCap {
		return processRewardCap
	}
	return process
}
