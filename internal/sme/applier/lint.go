package applier

import (
	"context"
	"os/exec"
	"time"
)

const lintTimeout = 30 * time.Second

// runLint lints app/** (here, everything under dir) with golangci-lint as
// the primary tool, falling back to `go vet` if golangci-lint isn't on
// PATH ("try a primary tool, fall back to a secondary
// if the first is absent").
func runLint(ctx context.Context, dir string) (ok bool, output string) {
	if _, err := exec.LookPath("golangci-lint"); err == nil {
		stdout, stderr, err := run(ctx, dir, "golangci-lint", []string{"run", "./..."}, lintTimeout)
		return err == nil, stdout + stderr
	}

	stdout, stderr, err := run(ctx, dir, "go", []string{"vet", "./..."}, lintTimeout)
	return err == nil, stdout + stderr
}
