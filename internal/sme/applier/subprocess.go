package applier

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"time"
)

// stdoutCapCharLimit bounds how much of stdout/stderr run retains, beyond
// which it silently drops remaining bytes ("bounded buffers").
const stdoutCapCharLimit = 64 * 1024

// run executes name with args in dir, bounded by timeout, capturing
// stdout/stderr into capped buffers (io.LimitReader over a bytes.Buffer),
// "bounded buffers" subprocess requirement.
func run(ctx context.Context, dir, name string, args []string, timeout time.Duration) (stdout, stderr string, err error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = dir

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	stdout = capString(&outBuf)
	stderr = capString(&errBuf)
	return stdout, stderr, err
}

func capString(buf *bytes.Buffer) string {
	limited := io.LimitReader(buf, stdoutCapCharLimit)
	data, _ := io.ReadAll(limited)
	return string(data)
}

// truncateSummary returns s truncated to maxChars with a trailing
// ellipsis, matching ApplyResult.stdout_snippet's ≤200-char contract
//.
func truncateSummary(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	return s[:maxChars] + "..."
}
