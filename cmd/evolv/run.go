package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/evolvsys/evolv/internal/config"
	"github.com/evolvsys/evolv/internal/evolution"
)

// shadowRoundOutput is the wire shape a `run --shadow-json` invocation
// prints to stdout: one round's reward/error/latency, consumed by the
// shadow command's patched-round adapter when it shells out to a
// materialized worktree's own binary.
type shadowRoundOutput struct {
	Reward float64 `json:"reward"`
	Errored bool `json:"errored"`
	LatencyMS float64 `json:"latency_ms"`
}

// RunCmd drives one Evolution Runner request end to end.
type RunCmd struct {
	Config string `help:"Path to YAML config file." name:"config" type:"existingfile"`
	Engine string `help:"Local engine name (must exist under config.engines)." required:""`
	TaskClass string `help:"Task class bucket for bandit/memory lookups." name:"task-class" default:"general"`
	Task string `arg:"" help:"Task prompt text."`
	Assertion []string `help:"Assertion the generated output must satisfy (repeatable)." name:"assertion"`
	N int `help:"Number of variants to generate." default:"6"`
	MemoryK int `help:"Episodic memories to retrieve." name:"memory-k"`
	RAGK int `help:"RAG passages to retrieve." name:"rag-k"`
	JudgeMode string `help:"Judge mode." name:"judge-mode" enum:",off,pairwise_groq" default:""`
	BanditAlgo string `help:"Bandit algorithm." name:"bandit-algo" enum:",ucb,epsilon_greedy" default:""`
	Seed *int64 `help:"Deterministic seed overriding the configured one."`
	Shadow bool `help:"Suppress realtime event publication." hidden:""`
	ShadowJSON bool `help:"Print a single {reward,errored,latency_ms} JSON line instead of a report." name:"shadow-json" hidden:""`
	Format string `help:"Output format." enum:"table,json" default:"table" short:"f"`
}

func (r *RunCmd) Run() error {
	cfg, err := loadConfig(r.Config)
	if err != nil {
		return err
	}

	runner, err := cfg.BuildRunner(r.Engine)
	if err != nil {
		return err
	}
	runner.Metrics = globalMetrics

	spec := evolution.Spec{
		TaskClass: r.TaskClass,
		Task: r.Task,
		Assertions: r.Assertion,
		N: r.N,
		Flags: r.flags(cfg),
	}

	start := time.Now()
	result, runErr := runner.Run(context.Background(), spec)
	elapsed := time.Since(start)

	if r.ShadowJSON {
		return printShadowRoundOutput(result, runErr, elapsed)
	}
	if runErr != nil {
		return runErr
	}

	if r.Format == "json" {
		return printJSON(result)
	}
	printRunTable(result)
	return nil
}

// flags overlays this command's non-zero fields onto cfg.RunFlags,
// keeping config-file values as the default and CLI flags as the final
// override (the precedence internal/config.Load's doc comment promises
// callers will implement).
func (r *RunCmd) flags(cfg config.Config) evolution.Flags {
	flags := cfg.RunFlags()
	if r.MemoryK != 0 {
		flags.MemoryK = r.MemoryK
	}
	if r.RAGK != 0 {
		flags.RAGK = r.RAGK
	}
	if r.JudgeMode != "" {
		flags.JudgeMode = r.JudgeMode
	}
	if r.BanditAlgo != "" {
		flags.BanditAlgo = r.BanditAlgo
	}
	if r.Seed != nil {
		flags.Seed = r.Seed
	}
	flags.ShadowMode = r.Shadow
	return flags
}

func printShadowRoundOutput(result evolution.Result, runErr error, elapsed time.Duration) error {
	out := shadowRoundOutput{LatencyMS: float64(elapsed.Milliseconds())}
	if runErr != nil {
		out.Errored = true
	} else if result.BestVariant != nil {
		out.Reward = result.BestVariant.TotalReward
	}
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(out)
}

func printRunTable(result evolution.Result) {
	fmt.Println("\nEvolution Run")
	fmt.Println("=============")
	fmt.Printf("run_id: %s\n", result.Run.ID)
	fmt.Printf("task_class: %s\n", result.Run.TaskClass)
	fmt.Printf("variants: %d\n", len(result.Variants))
	fmt.Printf("promoted: %t\n", result.Promoted)
	fmt.Printf("auto_approved: %t\n", result.AutoApproved)
	fmt.Printf("steps_to_best: %d\n", result.StepsToBest)

	if result.BestVariant != nil {
		b := result.BestVariant
		fmt.Println("\nBest variant")
		fmt.Println("------------")
		fmt.Printf("operator: %s\n", b.Operator)
		fmt.Printf("model_id: %s\n", b.ModelID)
		fmt.Printf("total_reward: %.4f\n", b.TotalReward)
		fmt.Printf("outcome_reward: %.4f\n", b.OutcomeReward)
		fmt.Printf("process_reward: %.4f\n", b.ProcessReward)
		fmt.Printf("cost_penalty: %.4f\n", b.CostPenalty)
		fmt.Printf("latency_ms: %d\n", b.LatencyMS)
		fmt.Printf("\nOutput:\n%s\n", b.Output)
	}

	if result.PairwiseVerdict != nil {
		fmt.Println("\nPairwise verdict")
		fmt.Println("----------------")
		fmt.Printf("winner: %s\n", result.PairwiseVerdict.Winner)
		fmt.Printf("rationale: %s\n", result.PairwiseVerdict.Rationale)
	}
}
