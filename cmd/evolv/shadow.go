package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/evolvsys/evolv/internal/config"
	"github.com/evolvsys/evolv/internal/evolution"
	"github.com/evolvsys/evolv/internal/sme/applier"
	"github.com/evolvsys/evolv/internal/sme/guards"
	"github.com/evolvsys/evolv/internal/sme/shadow"
)

// ShadowCmd runs the Shadow Evaluator over a candidate
// patch: it materializes the patch into a scratch worktree and drives
// the same Golden Set through both the current tree (baseline, in
// process) and the patched tree (via `go run` of the worktree's own
// cmd/evolv, one golden item at a time).
type ShadowCmd struct {
	Config string `help:"Path to YAML config file." name:"config" type:"existingfile"`
	PatchFile string `arg:"" help:"Unified diff file describing the candidate patch." type:"existingfile"`
	PatchID string `help:"Patch identifier (defaults to the diff file's base name)." name:"patch-id"`
	RepoRoot string `help:"Repository root to materialize the shadow worktree from." name:"repo-root" default:"."`
	GoldenDir string `help:"Golden Set directory (overrides config)." name:"golden-dir"`
	Engine string `help:"Local engine name to exercise." required:""`
	Format string `help:"Output format." enum:"table,json" default:"table" short:"f"`
}

func (s *ShadowCmd) Run() error {
	cfg, err := loadConfig(s.Config)
	if err != nil {
		return err
	}

	goldenDir := s.GoldenDir
	if goldenDir == "" {
		goldenDir = cfg.SME.Shadow.GoldenSetDir
	}
	golden, err := shadow.LoadGoldenSet(goldenDir)
	if err != nil {
		return err
	}

	diffBytes, err := os.ReadFile(s.PatchFile)
	if err != nil {
		return fmt.Errorf("shadow: read patch file: %w", err)
	}
	diff := string(diffBytes)

	patchID := s.PatchID
	if patchID == "" {
		patchID = filepath.Base(s.PatchFile)
	}

	baselineRunner, err := buildBaselineRunner(cfg, s.Engine)
	if err != nil {
		return err
	}

	dir, release, err := applier.MaterializeShadow(context.Background(), s.RepoRoot, diff)
	if err != nil {
		return err
	}
	defer release()

	patchedRunner := buildPatchedRunner(dir, s.Engine, s.Config)

	shadowCfg := shadow.DefaultConfig()
	if cfg.SME.Shadow.CanaryRuns > 0 {
		shadowCfg.CanaryRuns = cfg.SME.Shadow.CanaryRuns
	}
	if cfg.SME.Shadow.BaselineSamples > 0 {
		shadowCfg.BaselineSamples = cfg.SME.Shadow.BaselineSamples
	}
	if cfg.SME.Shadow.Iterations > 0 {
		shadowCfg.Iterations = cfg.SME.Shadow.Iterations
	}
	if cfg.SME.Shadow.Timeout > 0 {
		shadowCfg.Timeout = cfg.SME.Shadow.Timeout
	}

	result := shadow.Evaluate(context.Background(), patchID, golden, shadowCfg, baselineRunner, patchedRunner)
	globalMetrics.IncShadowEvaluation()

	thresholds := guards.Default()
	if t, ok := guards.Preset(cfg.SME.Guards.Preset); ok {
		thresholds = t
	} else if g := cfg.SME.Guards; g.ErrorRateMax != 0 || g.LatencyP95Regression != 0 || g.RewardDeltaMin != 0 {
		thresholds = guards.Thresholds{ErrorRateMax: g.ErrorRateMax, LatencyP95Regression: g.LatencyP95Regression, RewardDeltaMin: g.RewardDeltaMin}
	}
	guardResult := guards.Violations(result, thresholds)

	if s.Format == "json" {
		return printJSON(map[string]any{"shadow": result, "guards": guardResult})
	}

	fmt.Println("\nShadow Evaluation")
	fmt.Println("=================")
	fmt.Printf("patch_id: %s\n", result.PatchID)
	fmt.Printf("status: %s\n", result.Status)
	if result.ErrorMessage != "" {
		fmt.Printf("error: %s\n", result.ErrorMessage)
	}
	fmt.Printf("\nbefore: reward=%.4f error_rate=%.4f p95_ms=%.1f\n", result.Before.AvgReward, result.Before.ErrorRate, result.Before.LatencyP95)
	fmt.Printf("after: reward=%.4f error_rate=%.4f p95_ms=%.1f\n", result.After.AvgReward, result.After.ErrorRate, result.After.LatencyP95)
	fmt.Printf("deltas: reward=%+.4f error_rate=%+.4f p95_ms=%+.1f\n", result.Deltas.RewardDelta, result.Deltas.ErrorRateDelta, result.Deltas.LatencyP95Delta)
	fmt.Println("\n" + guards.Summary(guardResult))
	return nil
}

// buildBaselineRunner drives the current tree's in-process Runner, one
// round per Golden item, with ShadowMode set so runs never leak
// realtime events to live subscribers.
func buildBaselineRunner(cfg config.Config, engineName string) (shadow.RoundRunner, error) {
	runner, err := cfg.BuildRunner(engineName)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, item shadow.GoldenItem, iterations int) (shadow.RoundResult, error) {
		flags := cfg.RunFlags()
		flags.ShadowMode = true
		if item.Seed != nil {
			flags.Seed = item.Seed
		}
		if item.Flags.MemoryK != 0 {
			flags.MemoryK = item.Flags.MemoryK
		}
		if item.Flags.RAGK != 0 {
			flags.RAGK = item.Flags.RAGK
		}

		spec := evolution.Spec{
			TaskClass: item.TaskClass,
			Task: item.Task,
			Assertions: item.Assertions,
			N: iterations,
			Flags: flags,
		}

		start := time.Now()
		result, runErr := runner.Run(ctx, spec)
		elapsed := float64(time.Since(start).Milliseconds())

		if runErr != nil {
			return shadow.RoundResult{Errored: true, LatencyMS: elapsed}, nil
		}
		reward := 0.0
		if result.BestVariant != nil {
			reward = result.BestVariant.TotalReward
		}
		return shadow.RoundResult{Reward: reward, LatencyMS: elapsed}, nil
	}, nil
}

// buildPatchedRunner shells out to the materialized worktree's own
// `go run ./cmd/evolv run --shadow-json`, one golden item at a time —
// the compiled-language analogue of reloading a patched module in
// process.
func buildPatchedRunner(dir, engineName, configPath string) shadow.RoundRunner {
	return func(ctx context.Context, item shadow.GoldenItem, iterations int) (shadow.RoundResult, error) {
		args := []string{
			"run", "./cmd/evolv", "run",
			"--engine", engineName,
			"--task-class", item.TaskClass,
			"--n", strconv.Itoa(iterations),
			"--shadow", "--shadow-json",
		}
		if configPath != "" {
			args = append(args, "--config", configPath)
		}
		for _, a := range item.Assertions {
			args = append(args, "--assertion", a)
		}
		if item.Seed != nil {
			args = append(args, "--seed", strconv.FormatInt(*item.Seed, 10))
		}
		args = append(args, item.Task)

		cctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		cmd := exec.CommandContext(cctx, "go", args...)
		cmd.Dir = dir

		start := time.Now()
		out, runErr := cmd.Output()
		elapsed := float64(time.Since(start).Milliseconds())
		if runErr != nil {
			return shadow.RoundResult{Errored: true, LatencyMS: elapsed}, nil
		}

		var parsed shadowRoundOutput
		if jsonErr := json.Unmarshal(bytes.TrimSpace(out), &parsed); jsonErr != nil {
			return shadow.RoundResult{Errored: true, LatencyMS: elapsed}, nil
		}
		return shadow.RoundResult{Reward: parsed.Reward, Errored: parsed.Errored, LatencyMS: parsed.LatencyMS}, nil
	}
}
