package proposer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObjectStripsSurroundingProse(t *testing.T) {
	obj, err := extractJSONObject("Sure, here you go:\n```json\n{\"area\": \"bandit\"}\n```\nhope that helps")
	require.NoError(t, err)
	assert.Equal(t, `{"area": "bandit"}`, obj)
}

func TestExtractJSONObjectNoBracesErrors(t *testing.T) {
	_, err := extractJSONObject("no json here at all")
	assert.Error(t, err)
}

func TestLooseParseStrictJSON(t *testing.T) {
	p, err := looseParse(`{"area":"bandit","rationale":"tweak epsilon","diff":"--- a/x\n+++ b/x\n@@ -1,1 +1,1 @@\n-old\n+new\n"}`)
	require.NoError(t, err)
	assert.Equal(t, "bandit", p.Area)
}

func TestLooseParseRepairsUnescapedNewlinesInDiff(t *testing.T) {
	broken := "{\"area\":\"bandit\",\"rationale\":\"x\",\"diff\":\"--- a/x\n+++ b/x\n@@ -1,1 +1,1 @@\n-old\n+new\n\"}"
	p, err := looseParse(broken)
	require.NoError(t, err)
	assert.Contains(t, p.Diff, "--- a/x")
}

func TestLooseParseInvalidJSONErrors(t *testing.T) {
	_, err := looseParse(`{not json at all`)
	assert.Error(t, err)
}

func TestDiffLinesFromPrefersDiffLinesArray(t *testing.T) {
	p := rawProposal{DiffLines: []string{"--- a/x", "+++ b/x", "@@ -1,1 +1,1 @@", "-old", "+new"}}
	lines, err := diffLinesFrom(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"--- a/x", "+++ b/x", "@@ -1,1 +1,1 @@", "-old", "+new"}, lines)
}

func TestDiffLinesFromDecodesBase64(t *testing.T) {
	p := rawProposal{DiffB64: "LS0tIGEveA0KKysrIGIveA0K"} // "--- a/x\r\n+++ b/x\r\n"
	lines, err := diffLinesFrom(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"--- a/x", "+++ b/x"}, lines)
}

func TestDiffLinesFromFallsBackToDiffString(t *testing.T) {
	p := rawProposal{Diff: "--- a/x\r\n+++ b/x\r\n@@ -1,1 +1,1 @@\r\n-old\r\n+new\r\n"}
	lines, err := diffLinesFrom(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"--- a/x", "+++ b/x", "@@ -1,1 +1,1 @@", "-old", "+new"}, lines)
}

func TestDiffLinesFromNoPayloadErrors(t *testing.T) {
	_, err := diffLinesFrom(rawProposal{})
	assert.Error(t, err)
}

func TestValidateHeadersAcceptsWellFormedDiff(t *testing.T) {
	err := validateHeaders([]string{"--- a/x", "+++ b/x", "@@ -1,1 +1,1 @@", "-old", "+new"})
	assert.NoError(t, err)
}

func TestValidateHeadersRejectsMissingHunkHeader(t *testing.T) {
	err := validateHeaders([]string{"--- a/x", "+++ b/x", "not a hunk header"})
	assert.Error(t, err)
}

func TestValidateHeadersRejectsTooFewLines(t *testing.T) {
	err := validateHeaders([]string{"--- a/x"})
	assert.Error(t, err)
}

func TestReanchorHunkRecomputesHeader(t *testing.T) {
	lines := []string{"--- a/x", "+++ b/x", "@@ -bogus @@", " package foo", "-old", "+new"}
	fileText := "package foo\nold\n"
	fixed, err := reanchorHunk(lines, fileText)
	require.NoError(t, err)
	assert.Equal(t, "@@ -1,2 +1,2 @@", fixed[2])
}

func TestLOCDeltaCountsAddsAndDeletes(t *testing.T) {
	lines := []string{"--- a/x", "+++ b/x", "@@ -1,2 +1,2 @@", "-old1", "-old2", "+new1", "+new2"}
	assert.Equal(t, 4, locDelta(lines))
}

func TestModifiedPathsExtractsFromPlusHeader(t *testing.T) {
	paths := modifiedPaths([]string{"--- a/internal/bandit/policy.go", "+++ b/internal/bandit/policy.go"})
	assert.Equal(t, []string{"internal/bandit/policy.go"}, paths)
}

func TestEnsureFinalNewlineAppendsWhenMissing(t *testing.T) {
	out := ensureFinalNewline([]string{"a", "b"})
	assert.Equal(t, []string{"a", "b", ""}, out)
}

func TestEnsureFinalNewlineNoopWhenPresent(t *testing.T) {
	out := ensureFinalNewline([]string{"a", ""})
	assert.Equal(t, []string{"a", ""}, out)
}
