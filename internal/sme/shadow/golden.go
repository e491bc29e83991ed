// Package shadow implements the Shadow Evaluator: run a
// Golden Set of tasks through the Evolution Runner twice (baseline then
// patched), aggregate reward/error-rate/latency metrics, and compute
// deltas for Guards and the Selector to act on.
package shadow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// GoldenItem is one Golden Set task (file format).
type GoldenItem struct {
	ID string `json:"id"`
	TaskClass string `json:"task_class"`
	Task string `json:"task"`
	Assertions []string `json:"assertions,omitempty"`
	Flags GoldenFlags `json:"flags,omitempty"`
	Seed *int64 `json:"seed,omitempty"`
	TaskType string `json:"task_type,omitempty"`
}

// GoldenFlags carries the per-item run flags the file format allows.
type GoldenFlags struct {
	MemoryK int `json:"memory_k,omitempty"`
	RAGK int `json:"rag_k,omitempty"`
	Web bool `json:"web,omitempty"`
}

// LoadGoldenSet reads every *.json file directly under dir in
// deterministic file-name order.
func LoadGoldenSet(dir string) ([]GoldenItem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("shadow: read golden set dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	items := make([]GoldenItem, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("shadow: read golden item %s: %w", name, err)
		}
		var item GoldenItem
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("shadow: parse golden item %s: %w", name, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Take returns up to n items from items, preserving order.
func Take(items []GoldenItem, n int) []GoldenItem {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}
