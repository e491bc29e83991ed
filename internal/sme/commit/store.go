package commit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/evolvsys/evolv/pkg/evoltypes"
)

// Index is the central status-counter file persisted at
// <patch_store>/index.json.
type Index struct {
	Committed int `json:"committed"`
	RolledBack int `json:"rolled_back"`
	Failed int `json:"failed"`
	Artifacts map[string]evoltypes.CommitArtifact `json:"artifacts"`
}

// Store persists CommitArtifacts and the central index under a root
// directory, one timestamped subdirectory per artifact (step
// 5: "timestamped directory").
type Store struct {
	Root string
}

// NewStore returns a Store rooted at root, creating it if necessary.
func NewStore(root string) (Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return Store{}, fmt.Errorf("commit: create patch store: %w", err)
	}
	return Store{Root: root}, nil
}

func (s Store) indexPath() string {
	return filepath.Join(s.Root, "index.json")
}

func (s Store) loadIndex() (Index, error) {
	idx := Index{Artifacts: map[string]evoltypes.CommitArtifact{}}
	data, err := os.ReadFile(s.indexPath())
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return idx, fmt.Errorf("commit: read index: %w", err)
	}
	if err := json.Unmarshal(data, &idx); err != nil {
		return idx, fmt.Errorf("commit: parse index: %w", err)
	}
	if idx.Artifacts == nil {
		idx.Artifacts = map[string]evoltypes.CommitArtifact{}
	}
	return idx, nil
}

func (s Store) saveIndex(idx Index) error {
	data, err := json.MarshalIndent(idx, "", " ")
	if err != nil {
		return fmt.Errorf("commit: marshal index: %w", err)
	}
	return os.WriteFile(s.indexPath(), data, 0o644)
}

// artifactDir returns a timestamped subdirectory name unique per patch.
func artifactDir(patchID string, ts time.Time) string {
	return fmt.Sprintf("%s-%s", ts.UTC().Format("20060102T150405Z"), patchID)
}

// Persist writes the artifact's diff+metadata JSON under a timestamped
// directory and updates the central index's status counters under the
// index lock.
func (s Store) Persist(artifact evoltypes.CommitArtifact) error {
	dir := filepath.Join(s.Root, artifactDir(artifact.PatchID, artifact.Timestamp))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("commit: create artifact dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "diff.patch"), []byte(artifact.Diff), 0o644); err != nil {
		return fmt.Errorf("commit: write diff: %w", err)
	}
	meta, err := json.MarshalIndent(artifact, "", " ")
	if err != nil {
		return fmt.Errorf("commit: marshal artifact: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), meta, 0o644); err != nil {
		return fmt.Errorf("commit: write metadata: %w", err)
	}

	return withIndexLock(s.indexPath(), func() error {
		idx, err := s.loadIndex()
		if err != nil {
			return err
		}
		idx.Artifacts[artifact.PatchID] = artifact
		idx = recount(idx)
		return s.saveIndex(idx)
	})
}

func recount(idx Index) Index {
	idx.Committed, idx.RolledBack, idx.Failed = 0, 0, 0
	for _, a := range idx.Artifacts {
		switch a.Status {
		case evoltypes.CommitCommitted:
			idx.Committed++
		case evoltypes.CommitRolledBack:
			idx.RolledBack++
		case evoltypes.CommitFailed:
			idx.Failed++
		}
	}
	return idx
}

// Get returns the stored artifact for patchID, if any.
func (s Store) Get(patchID string) (evoltypes.CommitArtifact, bool, error) {
	idx, err := s.loadIndex()
	if err != nil {
		return evoltypes.CommitArtifact{}, false, err
	}
	a, ok := idx.Artifacts[patchID]
	return a, ok, nil
}
