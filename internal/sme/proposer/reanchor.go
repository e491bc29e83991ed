package proposer

import "strings"

// ReanchorDiff is reanchorHunk exposed for internal/sme/applier's dry-run
// repair pass ("attempt a single repair pass using the
// proposer's re-anchor helper"). diff and the returned string are
// newline-joined unified diffs, not line slices.
func ReanchorDiff(diff, fileText string) (string, error) {
	lines := strings.Split(diff, "\n")
	fixed, err := reanchorHunk(lines, fileText)
	if err != nil {
		return "", err
	}
	return strings.Join(fixed, "\n"), nil
}
