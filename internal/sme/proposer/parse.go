package proposer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// rawProposal is the strict-or-loose JSON shape the Proposer's prompt
// demands: `{area, rationale, diff}` or the enhanced
// `{area, goal_tag, rationale, diff_lines[]}`.
type rawProposal struct {
	Area string `json:"area"`
	GoalTag string `json:"goal_tag"`
	Rationale string `json:"rationale"`
	Diff string `json:"diff"`
	DiffLines []string `json:"diff_lines"`
	DiffB64 string `json:"diff_b64"`
}

var hunkHeaderRE = regexp.MustCompile(`^@@ -(\d+),(\d+) \+(\d+),(\d+) @@`)

// extractJSONObject locates the first `{` and last `}` in raw, tolerating
// prose or markdown fencing around the object.
func extractJSONObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return "", fmt.Errorf("proposer: response contains no JSON object")
	}
	return raw[start : end+1], nil
}

// looseParse attempts a strict JSON decode first; on failure, it re-escapes
// literal control characters embedded in the "diff" string value (the
// common failure mode when a model emits a raw unified diff inside a JSON
// string without escaping its newlines), then retries.
func looseParse(candidate string) (rawProposal, error) {
	var parsed rawProposal
	if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
		return parsed, nil
	}

	repaired := reescapeStringValue(candidate, "diff")
	if err := json.Unmarshal([]byte(repaired), &parsed); err == nil {
		return parsed, nil
	}

	repaired = salvageTruncatedArray(repaired, "diff_lines")
	if err := json.Unmarshal([]byte(repaired), &parsed); err == nil {
		return parsed, nil
	}

	return rawProposal{}, fmt.Errorf("proposer: response is not valid JSON even after salvage")
}

// reescapeStringValue walks raw looking for `"<key>":"..."` and re-escapes
// literal newline/tab/carriage-return bytes inside that string's value,
// tracking backslash-escape parity to find the true closing quote.
func reescapeStringValue(raw, key string) string {
	marker := `"` + key + `":"`
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return raw
	}
	valueStart := idx + len(marker)

	var b strings.Builder
	b.WriteString(raw[:valueStart])

	i := valueStart
	escaped := false
	closed := false
	for ; i < len(raw); i++ {
		c := raw[i]
		if closed {
			break
		}
		switch {
		case escaped:
			b.WriteByte(c)
			escaped = false
		case c == '\\':
			b.WriteByte(c)
			escaped = true
		case c == '"':
			b.WriteByte(c)
			closed = true
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteString(raw[i:])
	return b.String()
}

// salvageTruncatedArray keeps only the complete quoted strings inside a
// `"<key>": [...]` array, dropping a dangling partial element left by a
// truncated model response, and closes the array.
func salvageTruncatedArray(raw, key string) string {
	marker := `"` + key + `"`
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return raw
	}
	arrStart := strings.IndexByte(raw[idx:], '[')
	if arrStart < 0 {
		return raw
	}
	arrStart += idx

	quoted := regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
	tail := raw[arrStart:]
	arrEnd := strings.IndexByte(tail, ']')
	body := tail
	if arrEnd >= 0 {
		body = tail[:arrEnd]
	}
	matches := quoted.FindAllString(body, -1)
	if len(matches) == 0 {
		return raw
	}
	rebuilt := "[" + strings.Join(matches, ",") + "]"

	var after string
	if arrEnd >= 0 {
		after = tail[arrEnd+1:]
	}
	return raw[:arrStart] + rebuilt + after
}

// diffLinesFrom accepts diff_lines[], diff_b64, or a legacy diff string (in
// that preference order), normalizing CRLF to LF and de-escaping quotes,
// step 2-3.
func diffLinesFrom(p rawProposal) ([]string, error) {
	switch {
	case len(p.DiffLines) > 0:
		lines := make([]string, len(p.DiffLines))
		for i, l := range p.DiffLines {
			lines[i] = strings.ReplaceAll(strings.ReplaceAll(l, "\r\n", "\n"), "\\\"", "\"")
		}
		return trimTrailingEmpty(lines), nil

	case p.DiffB64 != "":
		decoded, err := base64.StdEncoding.DecodeString(p.DiffB64)
		if err != nil {
			return nil, fmt.Errorf("proposer: diff_b64 is not valid base64: %w", err)
		}
		return normalizeDiffText(string(decoded)), nil

	case p.Diff != "":
		return normalizeDiffText(p.Diff), nil

	default:
		return nil, fmt.Errorf("proposer: no diff payload present (expected diff_lines, diff_b64, or diff)")
	}
}

func normalizeDiffText(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, `\"`, `"`)
	return trimTrailingEmpty(strings.Split(text, "\n"))
}

func trimTrailingEmpty(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ensureFinalNewline appends an empty trailing line, step 3.
func ensureFinalNewline(lines []string) []string {
	if len(lines) == 0 || lines[len(lines)-1] != "" {
		return append(lines, "")
	}
	return lines
}

// validateHeaders checks the 3-line unified-diff header shape:
// `--- a/<path>`, `+++ b/<path>`, `@@ -o,c +n,c @@`.
func validateHeaders(lines []string) error {
	if len(lines) < 3 {
		return fmt.Errorf("proposer: diff has fewer than 3 header lines")
	}
	if !strings.HasPrefix(lines[0], "---") {
		return fmt.Errorf("proposer: missing '---' header")
	}
	if !strings.HasPrefix(lines[1], "+++") {
		return fmt.Errorf("proposer: missing '+++' header")
	}
	if !hunkHeaderRE.MatchString(lines[2]) && !strings.HasPrefix(lines[2], "@@") {
		return fmt.Errorf("proposer: malformed hunk header %q", lines[2])
	}
	return nil
}

// reanchorHunk recomputes the @@ header by locating the diff body's first
// context line (one beginning with a space) inside fileText, and recounts
// old/new line totals from the body's +/- prefixes. Used when validation
// fails and the target file's current content is available (
// step 4).
func reanchorHunk(lines []string, fileText string) ([]string, error) {
	if len(lines) < 4 {
		return nil, fmt.Errorf("proposer: diff too short to re-anchor")
	}
	body := lines[3:]

	var firstContext string
	for _, l := range body {
		if strings.HasPrefix(l, " ") {
			firstContext = strings.TrimPrefix(l, " ")
			break
		}
	}
	if firstContext == "" {
		return nil, fmt.Errorf("proposer: no context line available to re-anchor against")
	}

	fileLines := strings.Split(fileText, "\n")
	anchor := -1
	for i, l := range fileLines {
		if l == firstContext {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return nil, fmt.Errorf("proposer: context line not found in target file")
	}

	oldCount, newCount := 0, 0
	for _, l := range body {
		switch {
		case strings.HasPrefix(l, "-"):
			oldCount++
		case strings.HasPrefix(l, "+"):
			newCount++
		case strings.HasPrefix(l, " "):
			oldCount++
			newCount++
		}
	}

	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", anchor+1, oldCount, anchor+1, newCount)
	out := make([]string, 0, len(lines))
	out = append(out, lines[0], lines[1], header)
	out = append(out, body...)
	return out, nil
}

// countChanges counts add/delete lines in the diff body (lines[3:]),
// excluding the --- / +++ headers.
func countChanges(lines []string) (adds, dels int) {
	if len(lines) <= 3 {
		return 0, 0
	}
	for _, l := range lines[3:] {
		switch {
		case strings.HasPrefix(l, "+"):
			adds++
		case strings.HasPrefix(l, "-"):
			dels++
		}
	}
	return adds, dels
}

// locDelta is adds+dels over the whole diff.
func locDelta(lines []string) int {
	adds, dels := countChanges(lines)
	return adds + dels
}

// modifiedPaths extracts the path from the `+++ b/<path>` header line.
func modifiedPaths(lines []string) []string {
	if len(lines) < 2 {
		return nil
	}
	path := strings.TrimPrefix(lines[1], "+++ ")
	path = strings.TrimPrefix(path, "b/")
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	return []string{path}
}
