package applier

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunCapturesStdout(t *testing.T) {
	stdout, _, err := run(context.Background(), ".", "echo", []string{"hello"}, time.Second)
	assert.NoError(t, err)
	assert.Contains(t, stdout, "hello")
}

func TestRunRespectsTimeout(t *testing.T) {
	_, _, err := run(context.Background(), ".", "sleep", []string{"5"}, 50*time.Millisecond)
	assert.Error(t, err)
}

func TestTruncateSummaryCapsLength(t *testing.T) {
	long := strings.Repeat("x", 300)
	out := truncateSummary(long, 200)
	assert.Len(t, out, 203)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestTruncateSummaryNoopWhenShort(t *testing.T) {
	out := truncateSummary("short", 200)
	assert.Equal(t, "short", out)
}
