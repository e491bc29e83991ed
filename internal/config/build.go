package config

import (
	"fmt"

	"github.com/evolvsys/evolv/internal/embed"
	"github.com/evolvsys/evolv/internal/evolution"
	"github.com/evolvsys/evolv/internal/judge"
	"github.com/evolvsys/evolv/internal/memory"
	"github.com/evolvsys/evolv/pkg/registry"
)

// RegistryConfig converts an EngineConfig into the registry.Config map
// gateway.Create/embed.Create expect.
func (ec EngineConfig) RegistryConfig() registry.Config {
	cfg := registry.Config{}
	if ec.Model != "" {
		cfg["model"] = ec.Model
	}
	if ec.Temperature != 0 {
		cfg["temperature"] = ec.Temperature
	}
	if ec.APIKey != "" {
		cfg["api_key"] = ec.APIKey
	}
	if ec.BaseURL != "" {
		cfg["base_url"] = ec.BaseURL
	}
	if ec.Region != "" {
		cfg["region"] = ec.Region
	}
	return cfg
}

// engineConfig is a package-local convenience alias for EngineConfig.RegistryConfig.
func engineConfig(ec EngineConfig) registry.Config {
	return ec.RegistryConfig()
}

// BuildJudgePool constructs a judge.ModelPool from the named engines in
// cfg.Judge.Members, resolving each against cfg.Engines.
func (c Config) BuildJudgePool() (*judge.ModelPool, error) {
	members := make([]judge.PoolMember, 0, len(c.Judge.Members))
	for _, name := range c.Judge.Members {
		ec, ok := c.Engines[name]
		if !ok {
			return nil, fmt.Errorf("config: judge.members references unknown engine %q", name)
		}
		members = append(members, judge.PoolMember{EngineName: name, Config: engineConfig(ec)})
	}
	return judge.NewModelPool(members, c.Judge.Seed), nil
}

// BuildEmbedder constructs the embedder Evolution/Memory/Judge share,
// defaulting to the dependency-free local-hash embedder (no component of
// SPEC_FULL.md mandates a specific embedding provider; local-hash keeps
// the default config runnable without external API keys).
func (c Config) BuildEmbedder() (embed.Embedder, error) {
	return embed.Create("local-hash", registry.Config{})
}

// BuildMemory opens the episodic Store at cfg.Memory.DBPath and wraps it
// in a Primer bound to embedder, ready to plug into
// internal/evolution.Runner.Memory.
func (c Config) BuildMemory(embedder embed.Embedder) (*memory.Store, *memory.Primer, error) {
	store, err := memory.Open(c.Memory.DBPath, memory.Config{
		RewardFloor: c.Memory.RewardFloor,
		MinConfidence: c.Memory.MinConfidence,
		StoreMaxSize: c.Memory.StoreMaxSize,
		TaskClassFuzzy: c.Memory.TaskClassFuzzy,
		RewardWeight: c.Memory.RewardWeight,
		TimeDecay: c.Memory.TimeDecay,
		DecayDays: c.Memory.DecayDays,
		PollutionGuard: c.Memory.PollutionGuard,
		PrimerTokensMax: c.Memory.PrimerTokensMax,
	})
	if err != nil {
		return nil, nil, err
	}
	return store, &memory.Primer{Store: store, Embedder: embedder}, nil
}

// BuildRunner assembles an internal/evolution.Runner from cfg, using
// localEngine as the runner's configured local generation engine name
// (run(...) always draws local variants from one fixed
// engine; remote/pairwise judging draws from the judge pool separately).
func (c Config) BuildRunner(localEngine string) (*evolution.Runner, error) {
	ec, ok := c.Engines[localEngine]
	if !ok {
		return nil, fmt.Errorf("config: unknown local engine %q", localEngine)
	}

	pool, err := c.BuildJudgePool()
	if err != nil {
		return nil, err
	}
	embedder, err := c.BuildEmbedder()
	if err != nil {
		return nil, err
	}

	runner := &evolution.Runner{
		LocalEngineName: localEngine,
		LocalEngineConfig: engineConfig(ec),
		JudgePool: pool,
		Embedder: embedder,
	}

	if c.Memory.DBPath != "" {
		_, primer, err := c.BuildMemory(embedder)
		if err != nil {
			return nil, fmt.Errorf("config: open memory store: %w", err)
		}
		runner.Memory = primer
	}

	return runner, nil
}

// RunFlags converts cfg.Run into evolution.Flags for a single `evolv
// run` invocation.
func (c Config) RunFlags() evolution.Flags {
	return evolution.Flags{
		MemoryK: c.Run.MemoryK,
		RAGK: c.Run.RAGK,
		BanditAlgo: c.Run.BanditAlgo,
		JudgeMode: c.Run.JudgeMode,
		Seed: c.Run.Seed,
	}
}
