package proposer

import (
	"strings"

	"github.com/evolvsys/evolv/pkg/prefilter"
)

// forbiddenTokens and forbiddenPaths name code areas a self-patch must
// never touch.
var forbiddenTokens = []string{
	"auth", "secret", "password", "token", "key", "billing", "schema",
	"migration", "model_weights", "external_client", "security", "crypto",
	"payment", "user_data", "admin",
}

var forbiddenPaths = []string{
	".env", "config/secrets", "auth/", "billing/", "admin/", "migrations/",
	"schema/", "weights/", "keys/",
}

// maxDiffLines rejects any diff longer than this many lines.
const maxDiffLines = 500

// tokenFilter is built once: an Aho-Corasick Prefilter over the forbidden
// token list.
var tokenFilter = prefilter.New(forbiddenTokens, nil)

// checkSafety rejects diffs touching forbidden tokens/paths or exceeding
// the line-count cap. Returns a human-readable reason on rejection.
func checkSafety(diffLines []string, modifiedPaths []string) (safe bool, reason string) {
	if len(diffLines) > maxDiffLines {
		return false, "diff exceeds the maximum permitted line count"
	}

	body := strings.ToLower(strings.Join(diffLines, "\n"))
	if matches := tokenFilter.Match(body); len(matches) > 0 {
		return false, "diff references a forbidden token: " + matches[0]
	}

	for _, p := range modifiedPaths {
		lower := strings.ToLower(p)
		for _, forbidden := range forbiddenPaths {
			if strings.Contains(lower, forbidden) {
				return false, "diff touches a forbidden path: " + forbidden
			}
		}
	}

	return true, ""
}
