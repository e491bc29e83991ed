package applier

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// excludedTreeEntries are skipped when copying the repo into a scratch
// worktree: VCS metadata, caches, logs, and transient state.
var excludedTreeEntries = []string{".git", "node_modules", ".cache", "logs", "runs", "storage", "tmp"}

func isExcluded(name string) bool {
	for _, e := range excludedTreeEntries {
		if name == e {
			return true
		}
	}
	return false
}

// AcquireWorktree copies repoRoot into a fresh temp directory, excluding
// VCS metadata/caches/logs/transient state, and returns its path plus a
// release func that must be called on every exit path ("scoped
// acquisition ... with guaranteed release on all exit paths").
func AcquireWorktree(repoRoot string) (path string, release func(), err error) {
	dir, err := os.MkdirTemp("", "evolv-worktree-*")
	if err != nil {
		return "", func() {}, fmt.Errorf("applier: create worktree dir: %w", err)
	}
	release = func() { _ = os.RemoveAll(dir) }

	if err := copyTree(repoRoot, dir); err != nil {
		release()
		return "", func() {}, fmt.Errorf("applier: copy worktree: %w", err)
	}
	return dir, release, nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if isExcluded(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode())
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode())
}
