package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "evolv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadWithNoPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Run.N, cfg.Run.N)
}

func TestLoadOverlaysYAMLOntoDefaults(t *testing.T) {
	path := writeYAML(t, "run:\n task_class: coding\n n: 12\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "coding", cfg.Run.TaskClass)
	assert.Equal(t, 12, cfg.Run.N)
	// Untouched defaults survive the overlay.
	assert.Equal(t, Default().SME.Guards.Preset, cfg.SME.Guards.Preset)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeYAML(t, "run:\n n: 3\n")
	t.Setenv("EVOLV_RUN__N", "9")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Run.N)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeYAML(t, "run:\n n: 0\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
