// Package config is the evolv configuration surface: a koanf+validator
// layering of YAML file < environment variables < CLI flags (highest
// precedence is applied by cmd/evolv, which overlays parsed Kong flags
// onto the struct Load returns).
package config

import (
	"fmt"
	"time"
)

// Config is the complete evolv configuration.
type Config struct {
	Run RunConfig `yaml:"run" koanf:"run"`
	Engines map[string]EngineConfig `yaml:"engines" koanf:"engines"`
	Judge JudgeConfig `yaml:"judge" koanf:"judge"`
	Memory MemoryConfig `yaml:"memory" koanf:"memory"`
	SME SMEConfig `yaml:"sme" koanf:"sme"`
	Output OutputConfig `yaml:"output" koanf:"output"`
}

// RunConfig is the default request shape for `evolv run`.
type RunConfig struct {
	TaskClass string `yaml:"task_class" koanf:"task_class"`
	N int `yaml:"n" koanf:"n" validate:"gte=1"`
	Timeout time.Duration `yaml:"timeout" koanf:"timeout"`
	MemoryK int `yaml:"memory_k,omitempty" koanf:"memory_k" validate:"gte=0"`
	RAGK int `yaml:"rag_k,omitempty" koanf:"rag_k" validate:"gte=0"`
	JudgeMode string `yaml:"judge_mode,omitempty" koanf:"judge_mode" validate:"omitempty,oneof=off pairwise_groq"`
	BanditAlgo string `yaml:"bandit_algo,omitempty" koanf:"bandit_algo" validate:"omitempty,oneof=ucb epsilon_greedy"`
	Seed *int64 `yaml:"seed,omitempty" koanf:"seed"`
}

// EngineConfig is one gateway engine's settings, handed straight through
// to gateway.Create(name, registry.Config) as a registry.Config map.
type EngineConfig struct {
	Model string `yaml:"model" koanf:"model"`
	Temperature float64 `yaml:"temperature,omitempty" koanf:"temperature" validate:"gte=0,lte=2"`
	APIKey string `yaml:"api_key,omitempty" koanf:"api_key"`
	BaseURL string `yaml:"base_url,omitempty" koanf:"base_url"`
	Region string `yaml:"region,omitempty" koanf:"region"`
}

// JudgeConfig parameterizes internal/judge's ModelPool and Panel.
type JudgeConfig struct {
	Members []string `yaml:"members" koanf:"members"` // engine names from Engines, weighted equally at pool construction
	Seed *int64 `yaml:"seed,omitempty" koanf:"seed"`
}

// MemoryConfig parameterizes internal/memory's Store.
type MemoryConfig struct {
	DBPath string `yaml:"db_path" koanf:"db_path"`
	RewardFloor float64 `yaml:"reward_floor,omitempty" koanf:"reward_floor"`
	MinConfidence float64 `yaml:"min_confidence,omitempty" koanf:"min_confidence"`
	StoreMaxSize int `yaml:"store_max_size,omitempty" koanf:"store_max_size" validate:"gte=0"`
	TaskClassFuzzy bool `yaml:"task_class_fuzzy,omitempty" koanf:"task_class_fuzzy"`
	RewardWeight float64 `yaml:"reward_weight,omitempty" koanf:"reward_weight" validate:"gte=0,lte=1"`
	TimeDecay bool `yaml:"time_decay,omitempty" koanf:"time_decay"`
	DecayDays float64 `yaml:"decay_days,omitempty" koanf:"decay_days" validate:"gte=0"`
	PollutionGuard bool `yaml:"pollution_guard,omitempty" koanf:"pollution_guard"`
	PrimerTokensMax int `yaml:"primer_tokens_max,omitempty" koanf:"primer_tokens_max" validate:"gte=0"`
}

// SMEConfig parameterizes the Self-Modification Engine subpackages.
type SMEConfig struct {
	Proposer ProposerConfig `yaml:"proposer" koanf:"proposer"`
	Shadow ShadowConfig `yaml:"shadow" koanf:"shadow"`
	Guards GuardsConfig `yaml:"guards" koanf:"guards"`
	Canary CanaryConfig `yaml:"canary" koanf:"canary"`
	Commit CommitConfig `yaml:"commit" koanf:"commit"`
}

// ProposerConfig parameterizes internal/sme/proposer.
type ProposerConfig struct {
	EngineName string `yaml:"engine_name" koanf:"engine_name"`
	BatchSize int `yaml:"batch_size,omitempty" koanf:"batch_size" validate:"gte=1"`
	GoldenSetDir string `yaml:"golden_set_dir,omitempty" koanf:"golden_set_dir"`
}

// ShadowConfig parameterizes internal/sme/shadow.
type ShadowConfig struct {
	GoldenSetDir string `yaml:"golden_set_dir" koanf:"golden_set_dir"`
	CanaryRuns int `yaml:"canary_runs,omitempty" koanf:"canary_runs" validate:"gte=0"`
	BaselineSamples int `yaml:"baseline_samples,omitempty" koanf:"baseline_samples" validate:"gte=0"`
	Iterations int `yaml:"iterations,omitempty" koanf:"iterations" validate:"gte=0"`
	Timeout time.Duration `yaml:"timeout,omitempty" koanf:"timeout"`
}

// GuardsConfig selects internal/sme/guards' threshold preset or a custom
// set of thresholds.
type GuardsConfig struct {
	Preset string `yaml:"preset,omitempty" koanf:"preset" validate:"omitempty,oneof=conservative moderate permissive"`
	ErrorRateMax float64 `yaml:"error_rate_max,omitempty" koanf:"error_rate_max"`
	LatencyP95Regression float64 `yaml:"latency_p95_regression,omitempty" koanf:"latency_p95_regression"`
	RewardDeltaMin float64 `yaml:"reward_delta_min,omitempty" koanf:"reward_delta_min"`
}

// CanaryConfig parameterizes internal/sme/canary.
type CanaryConfig struct {
	TrafficShare float64 `yaml:"traffic_share,omitempty" koanf:"traffic_share" validate:"gte=0,lte=1"`
	TargetRuns int `yaml:"target_runs,omitempty" koanf:"target_runs" validate:"gte=0"`
	MaxAge time.Duration `yaml:"max_age,omitempty" koanf:"max_age"`
	Seed *int64 `yaml:"seed,omitempty" koanf:"seed"`
}

// CommitConfig parameterizes internal/sme/commit.
type CommitConfig struct {
	Enabled bool `yaml:"enabled" koanf:"enabled"`
	RepoRoot string `yaml:"repo_root,omitempty" koanf:"repo_root"`
	StoreRoot string `yaml:"store_root,omitempty" koanf:"store_root"`
	RunTests bool `yaml:"run_tests,omitempty" koanf:"run_tests"`
}

// OutputConfig controls how `evolv` reports results.
type OutputConfig struct {
	Format string `yaml:"format" koanf:"format" validate:"omitempty,oneof=json table"`
	Path string `yaml:"path,omitempty" koanf:"path"`
}

// Default returns the documented defaults, mirroring each package's own
// DefaultConfig/Default (memory.DefaultConfig, guards.Default,
// shadow.DefaultConfig) so a zero-value YAML file still produces a
// runnable configuration.
func Default() Config {
	return Config{
		Run: RunConfig{
			TaskClass: "general",
			N: 6,
			Timeout: 5 * time.Minute,
		},
		Memory: MemoryConfig{
			DBPath: "storage/memory.db",
			RewardFloor: 0.5,
			MinConfidence: 0.5,
			StoreMaxSize: 1000,
			TaskClassFuzzy: true,
			RewardWeight: 0.3,
			TimeDecay: true,
			DecayDays: 30,
			PollutionGuard: true,
			PrimerTokensMax: 200,
		},
		SME: SMEConfig{
			Proposer: ProposerConfig{BatchSize: 1, GoldenSetDir: "storage/golden_set"},
			Shadow: ShadowConfig{
				GoldenSetDir: "storage/golden_set",
				CanaryRuns: 10,
				BaselineSamples: 2,
				Iterations: 2,
				Timeout: 120 * time.Second,
			},
			Guards: GuardsConfig{Preset: "moderate"},
			Canary: CanaryConfig{TrafficShare: 0.1, TargetRuns: 100, MaxAge: 24 * time.Hour},
			Commit: CommitConfig{Enabled: false, StoreRoot: "storage/patches"},
		},
		Output: OutputConfig{Format: "table"},
	}
}

// Validate runs the struct's custom cross-field checks beyond what
// validator tags can express.
func (c *Config) Validate() error {
	if c.SME.Commit.Enabled && c.SME.Commit.RepoRoot == "" {
		return fmt.Errorf("sme.commit.repo_root is required when sme.commit.enabled is true")
	}
	if c.SME.Guards.Preset == "" {
		if c.SME.Guards.ErrorRateMax == 0 && c.SME.Guards.LatencyP95Regression == 0 && c.SME.Guards.RewardDeltaMin == 0 {
			return fmt.Errorf("sme.guards must set either a preset or explicit thresholds")
		}
	}
	return nil
}
