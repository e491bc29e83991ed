package proposer

import (
	"github.com/evolvsys/evolv/pkg/evoltypes"
)

// smokePatch is a deterministic, pre-validated minimal patch — a
// single-line comment addition to an allowed file — injected when a
// generation batch yields zero valid patches, so downstream stages
// (Applier, Shadow Evaluator, Guards, Selector) can still be exercised
// end-to-end ("Smoke patch").
func smokePatch() evoltypes.MetaPatch {
	diff := "--- a/internal/bandit/policy.go\n" +
		"+++ b/internal/bandit/policy.go\n" +
		"@@ -1,1 +1,2 @@\n" +
		" package bandit\n" +
		"+// smoke patch: exercises the SME pipeline end to end.\n"

	return evoltypes.MetaPatch{
		ID: "smoke",
		Area: evoltypes.AreaBandit,
		OriginModel: "smoke",
		Notes: "deterministic smoke patch injected after a zero-valid-patch generation batch",
		UnifiedDiff: diff,
		LOCDelta: 1,
	}
}
