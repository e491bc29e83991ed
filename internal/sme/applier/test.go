package applier

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const testRunTimeout = 60 * time.Second

// maxTestFiles caps how many discovered test files are exercised per
// dry-run, step 4.
const maxTestFiles = 5

// discoverTestFiles walks dir for *_test.go files in deterministic order,
// capped at maxTestFiles. filepath.Glob has no recursive "**" support, so
// discovery is a directory walk rather than a single glob call.
func discoverTestFiles(dir string) ([]string, error) {
	matches, err := walkTestFiles(dir)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	if len(matches) > maxTestFiles {
		matches = matches[:maxTestFiles]
	}
	return matches, nil
}

// runTests runs `go test` over the packages owning the discovered test
// files, bounded by testRunTimeout.
func runTests(ctx context.Context, dir string) (ok bool, output string) {
	files, err := discoverTestFiles(dir)
	if err != nil || len(files) == 0 {
		return true, "no test files discovered"
	}

	pkgs := make(map[string]bool)
	for _, f := range files {
		pkgs["./"+filepath.Dir(mustRel(dir, f))] = true
	}

	var args []string
	for pkg := range pkgs {
		args = append(args, pkg)
	}
	sort.Strings(args)

	stdout, stderr, err := run(ctx, dir, "go", append([]string{"test"}, args...), testRunTimeout)
	return err == nil, stdout + stderr
}

func walkTestFiles(dir string) ([]string, error) {
	var matches []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && isExcluded(d.Name()) {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), "_test.go") {
			matches = append(matches, path)
		}
		return nil
	})
	return matches, err
}

func mustRel(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return target
	}
	return rel
}
