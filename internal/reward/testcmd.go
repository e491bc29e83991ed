package reward

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// testCmdTimeout is the external test command's hard wall-clock limit
// ("runs the command with a 30 s timeout").
const testCmdTimeout = 30 * time.Second

// artifactPath is the fixed location the output under evaluation is
// written to before the test command runs ("writes the output
// to a known artifact path").
const artifactPath = "artifacts/out.txt"

// RunTestCommand writes output to the known artifact path and runs cmd
// under a shell, returning true if it exits zero. Mirrors rewards.py's
// subprocess.run(test_cmd, shell=True, timeout=30) path.
func RunTestCommand(ctx context.Context, cmd, output string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(artifactPath), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(artifactPath, []byte(output), 0o644); err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, testCmdTimeout)
	defer cancel()

	c := exec.CommandContext(ctx, "sh", "-c", cmd)
	err := c.Run()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
