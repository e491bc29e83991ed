package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/evolvsys/evolv/internal/embed"
	_ "github.com/evolvsys/evolv/internal/gateway"
)

func TestBuildJudgePoolRejectsUnknownEngine(t *testing.T) {
	cfg := Default()
	cfg.Judge.Members = []string{"missing"}
	_, err := cfg.BuildJudgePool()
	assert.Error(t, err)
}

func TestBuildJudgePoolResolvesConfiguredEngines(t *testing.T) {
	cfg := Default()
	cfg.Engines = map[string]EngineConfig{"local": {Model: "llama3"}}
	cfg.Judge.Members = []string{"local"}
	pool, err := cfg.BuildJudgePool()
	require.NoError(t, err)
	assert.NotNil(t, pool)
}

func TestBuildEmbedderReturnsLocalHash(t *testing.T) {
	cfg := Default()
	embedder, err := cfg.BuildEmbedder()
	require.NoError(t, err)
	assert.Equal(t, 384, embedder.Dim())
}

func TestBuildRunnerRejectsUnknownLocalEngine(t *testing.T) {
	cfg := Default()
	_, err := cfg.BuildRunner("missing")
	assert.Error(t, err)
}

func TestBuildRunnerWiresMemoryWhenDBPathSet(t *testing.T) {
	cfg := Default()
	cfg.Engines = map[string]EngineConfig{"local": {Model: "llama3"}}
	cfg.Memory.DBPath = ":memory:"

	runner, err := cfg.BuildRunner("local")
	require.NoError(t, err)
	assert.NotNil(t, runner.Memory)
}

func TestRunFlagsCarriesRunConfig(t *testing.T) {
	cfg := Default()
	cfg.Run.MemoryK = 3
	cfg.Run.BanditAlgo = "ucb"
	flags := cfg.RunFlags()
	assert.Equal(t, 3, flags.MemoryK)
	assert.Equal(t, "ucb", flags.BanditAlgo)
}
