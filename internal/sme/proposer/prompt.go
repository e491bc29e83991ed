package proposer

import (
	"fmt"
	"strings"

	"github.com/evolvsys/evolv/pkg/evoltypes"
)

// maxLOCDelta caps the size of any single proposed patch.
const maxLOCDelta = 50

// makePrompt builds the strict-JSON proposal prompt: it declares the
// allowed areas, the LOC cap, and demands a strict JSON object back.
func makePrompt(rejection *evoltypes.Rejection) string {
	var areas []string
	for _, a := range evoltypes.AllowedAreas {
		areas = append(areas, string(a))
	}

	var b strings.Builder
	b.WriteString("You are proposing one small, safe improvement to this system.\n\n")
	fmt.Fprintf(&b, "Allowed areas: %s\n", strings.Join(areas, ", "))
	fmt.Fprintf(&b, "Maximum total added+removed lines: %d\n\n", maxLOCDelta)
	b.WriteString("Respond with exactly one strict JSON object, no prose, no markdown fencing:\n")
	b.WriteString(`{"area": "<one of the allowed areas>", "rationale": "<short>", "diff": "<unified diff>"}`)
	b.WriteString("\nor, preferably:\n")
	b.WriteString(`{"area": "<area>", "goal_tag": "<short tag>", "rationale": "<short>", "diff_lines": ["--- a/path", "+++ b/path", "@@ -1,1 +1,1 @@", "-old", "+new"]}`)
	b.WriteString("\n\nThe diff must be a valid unified diff with --- / +++ / @@ headers against a real file path in this repository.\n")
	b.WriteString("Do not touch authentication, secrets, billing, schema migrations, or model weights.\n")

	if rejection != nil {
		fmt.Fprintf(&b, "\nYour previous attempt was rejected: %s (%s). Fix this and try again.\n", rejection.Reason, rejection.Detail)
	}

	return b.String()
}
