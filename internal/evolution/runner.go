// Package evolution implements the Evolution Runner: the
// per-iteration select-operator -> build-plan -> fetch-contexts ->
// generate -> score -> update-stats -> stream -> persist loop.
package evolution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/evolvsys/evolv/internal/bandit"
	"github.com/evolvsys/evolv/internal/embed"
	"github.com/evolvsys/evolv/internal/gateway"
	"github.com/evolvsys/evolv/internal/judge"
	"github.com/evolvsys/evolv/internal/operators"
	"github.com/evolvsys/evolv/internal/realtime"
	"github.com/evolvsys/evolv/internal/reward"
	"github.com/evolvsys/evolv/pkg/evoltypes"
	"github.com/evolvsys/evolv/pkg/metrics"
	"github.com/evolvsys/evolv/pkg/recipe"
	"github.com/evolvsys/evolv/pkg/registry"
	"github.com/evolvsys/evolv/pkg/retry"
)

// promotionDeltaThreshold and promotionAutoApproveThreshold gate the
// post-run promotion policy.
const (
	promotionDeltaThreshold = 0.05
	promotionAutoApproveThreshold = 0.15
	promotionCostFactor = 0.9
)

// errEmptyGeneration is the retryable sentinel for an empty/blank local
// generation.
var errEmptyGeneration = errors.New("empty generation response")

// pairwiseJSONBlock tolerates prose/markdown-fenced wrapping around the
// pairwise verdict JSON, the same salvage leniency judge.jsonBlock applies.
var pairwiseJSONBlock = regexp.MustCompile(`(?s)\{.*\}`)

// Spec is one evolution run's request, mirroring contract
// `run(task_class, task, assertions, n, flags)`.
type Spec struct {
	TaskClass string
	Task string
	Assertions []string
	N int
	Flags Flags
}

// Result is the full outcome of a run.
type Result struct {
	Run evoltypes.Run
	Variants []evoltypes.Variant
	BestVariant *evoltypes.Variant
	StepsToBest int
	Promoted bool
	AutoApproved bool
	PairwiseVerdict *PairwiseVerdict
}

// PairwiseVerdict is the optional judge_mode=pairwise_groq result: a
// single remote generation drawn from the best recipe, compared with the
// run's local best output by an A/B/tie judge call with a rationale.
type PairwiseVerdict struct {
	Winner string // "a" | "b" | "tie"
	Rationale string
}

// Runner executes evolution runs against one local generation engine,
// one Judge Panel, and pluggable memory/RAG/web/recipe-source/stats
// providers.
type Runner struct {
	LocalEngineName string
	LocalEngineConfig registry.Config
	JudgePool *judge.ModelPool
	Embedder embed.Embedder

	Memory MemoryPrimer
	RAG RAGFetcher
	Web WebFetcher
	RecipeSource RecipeSource
	Stats StatsStore
	Publisher *realtime.Hub

	// Metrics, when set, receives run/variant/promotion counters for
	// Prometheus export (pkg/metrics). Optional: a nil Metrics is a no-op.
	Metrics *metrics.Metrics
}

func (r *Runner) incRun() {
	if r.Metrics != nil {
		r.Metrics.IncRun()
	}
}

func (r *Runner) incVariant(promoted bool) {
	if r.Metrics == nil {
		return
	}
	r.Metrics.IncVariant()
	if promoted {
		r.Metrics.IncPromoted()
	}
}

// Run executes one evolution run end to end.
func (r *Runner) Run(ctx context.Context, spec Spec) (Result, error) {
	r.incRun()
	runID := uuid.NewString()
	now := time.Now()
	run := evoltypes.Run{
		ID: runID,
		TaskClass: spec.TaskClass,
		Task: spec.Task,
		Assertions: spec.Assertions,
		StartedAt: now,
	}

	engineName := r.LocalEngineName
	if spec.Flags.ForceEngine != "" {
		engineName = spec.Flags.ForceEngine
	}
	engine, err := gateway.Create(engineName, r.LocalEngineConfig)
	if err != nil {
		return Result{}, fmt.Errorf("evolution: local engine %q unavailable: %w", engineName, err)
	}

	opNames := spec.Flags.Operators
	if len(opNames) == 0 {
		opNames = operators.ForGroups(spec.Flags.resolvedMask())
	}

	var rnd *rand.Rand
	if spec.Flags.Seed != nil {
		rnd = rand.New(rand.NewSource(*spec.Flags.Seed))
	} else {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	policy, err := r.buildBandit(spec.Flags)
	if err != nil {
		return Result{}, err
	}

	opStats := map[string]recipe.Stats{}
	engineStats := map[recipe.EngineStatsKey]recipe.Stats{}
	if r.Stats != nil {
		if loaded, err := r.Stats.LoadOperatorStats(ctx); err == nil {
			opStats = loaded
		}
		if loaded, err := r.Stats.LoadEngineStats(ctx); err == nil {
			engineStats = loaded
		}
	}

	baseline, haveBaseline := r.resolveBaseline(ctx, spec.TaskClass)

	var variants []evoltypes.Variant
	var best *evoltypes.Variant
	var bestIteration int
	var operatorSequence []string

	for i := 0; i < spec.N; i++ {
		select {
		case <-ctx.Done():
			return Result{Run: run, Variants: variants, BestVariant: best}, ctx.Err()
		default:
		}

		variant, opName, err := r.iterate(ctx, i, spec, engine, engineName, policy, opNames, opStats, engineStats, baseline, haveBaseline, runID, rnd)
		if err != nil {
			r.publishFor(runID, "error", map[string]any{"iteration": i, "error": err.Error()}, spec.Flags.ShadowMode)
			continue
		}

		variants = append(variants, variant)
		operatorSequence = append(operatorSequence, opName)

		promoted := best == nil || variant.TotalReward > best.TotalReward
		if promoted {
			v := variant
			best = &v
			bestIteration = i
		}
		r.incVariant(promoted)

		r.publishFor(runID, "iteration", map[string]any{
			"iteration": i,
			"operator": opName,
			"total_reward": variant.TotalReward,
			"variant_id": variant.ID,
		}, spec.Flags.ShadowMode)
	}

	if r.Stats != nil {
		_ = r.Stats.SaveOperatorStats(ctx, opStats)
		_ = r.Stats.SaveEngineStats(ctx, engineStats)
	}

	finished := time.Now()
	haveBest := best != nil
	var bestScore, bestTotalReward float64
	var bestVariantID string
	if haveBest {
		bestScore = best.Score
		bestTotalReward = best.TotalReward
		bestVariantID = best.ID
	}
	run.Finalize(finished, bestScore, bestTotalReward, haveBest)
	run.OperatorSequence = operatorSequence
	run.BestVariantID = bestVariantID

	result := Result{
		Run: run,
		Variants: variants,
		BestVariant: best,
		StepsToBest: bestIteration + 1,
	}

	if haveBest && haveBaseline {
		delta := best.TotalReward - baseline.TotalReward
		result.Promoted = delta > promotionDeltaThreshold && best.CostPenalty <= promotionCostFactor*baseline.CostPenalty
		result.AutoApproved = result.Promoted && delta > promotionAutoApproveThreshold
	} else if haveBest && !haveBaseline {
		result.Promoted = true
	}

	if haveBest && spec.Flags.JudgeMode == "pairwise_groq" {
		verdict, err := r.pairwiseJudge(ctx, spec, *best)
		if err == nil {
			result.PairwiseVerdict = verdict
		}
	}

	r.publishFor(runID, "done", map[string]any{"promoted": result.Promoted, "auto_approved": result.AutoApproved}, spec.Flags.ShadowMode)

	return result, nil
}

func (r *Runner) buildBandit(flags Flags) (bandit.Bandit, error) {
	switch flags.BanditAlgo {
	case "", "epsilon_greedy":
		return bandit.NewEpsilonGreedy(0.1, flags.Seed), nil
	case "ucb":
		return bandit.NewUCB1(2.0, 1, true, flags.Seed), nil
	default:
		return nil, fmt.Errorf("evolution: unknown bandit_algo %q", flags.BanditAlgo)
	}
}

func (r *Runner) resolveBaseline(ctx context.Context, taskClass string) (RecipeBaseline, bool) {
	if r.RecipeSource == nil {
		return RecipeBaseline{}, false
	}
	return r.RecipeSource.TopApproved(ctx, taskClass)
}

func (r *Runner) publish(runID, eventType string, data map[string]any) {
	r.publishFor(runID, eventType, data, false)
}

func (r *Runner) publishFor(runID, eventType string, data map[string]any, shadow bool) {
	if r.Publisher == nil || shadow {
		return
	}
	r.Publisher.Publish(realtime.Event{RunID: runID, Type: eventType, Data: data})
}

func (r *Runner) iterate(
	ctx context.Context,
	iteration int,
	spec Spec,
	engine gateway.Engine,
	engineName string,
	policy bandit.Bandit,
	opNames []string,
	opStats map[string]recipe.Stats,
	engineStats map[recipe.EngineStatsKey]recipe.Stats,
	baseline RecipeBaseline,
	haveBaseline bool,
	runID string,
	rnd *rand.Rand,
) (evoltypes.Variant, string, error) {
	opName := policy.Select(opNames, opStats)

	op, err := operators.Create(opName, nil)
	if err != nil {
		return evoltypes.Variant{}, opName, fmt.Errorf("evolution: operator %q unavailable: %w", opName, err)
	}

	baseRecipe := recipe.Default()
	if haveBaseline {
		baseRecipe = baseline.Recipe
	}

	mutated := op.Apply(baseRecipe, rnd)
	mutated.Params.Clamp()

	ctxBundle := operators.ContextBundle{Task: spec.Task}
	if spec.Flags.MemoryK > 0 && r.Memory != nil {
		if primer, err := r.Memory.Primer(ctx, spec.TaskClass, spec.Task, spec.Flags.MemoryK); err == nil && primer != "" {
			ctxBundle.MemoryPrimer = primer
			mutated.Flags.UseMemory = true
		}
	}
	if mutated.Flags.UseRAG && r.RAG != nil {
		if block, err := r.RAG.Fetch(ctx, spec.Task, spec.Flags.RAGK); err == nil {
			ctxBundle.RAGBlock = block
		}
	}
	if mutated.Flags.UseWeb && r.Web != nil {
		if block, err := r.Web.Fetch(ctx, spec.Task); err == nil {
			ctxBundle.WebBlock = block
		}
	}

	plan := operators.Assemble(mutated, ctxBundle)

	var output string
	var resolvedModel string
	start := time.Now()
	err = retry.Do(ctx, retry.Config{
		MaxAttempts: 3,
		RetryableFunc: func(err error) bool {
			return errors.Is(err, errEmptyGeneration)
		},
	}, func() error {
		text, model, callErr := engine.Call(ctx, plan.PromptText, plan.SystemText, gateway.Options{
			Temperature: plan.SamplingOptions.Temperature,
			TopK: plan.SamplingOptions.TopK,
		})
		if callErr != nil {
			return callErr
		}
		if text == "" {
			return errEmptyGeneration
		}
		output = text
		resolvedModel = model
		return nil
	})
	latencyMS := time.Since(start).Milliseconds()
	if err != nil {
		return evoltypes.Variant{}, opName, fmt.Errorf("evolution: generation failed: %w", err)
	}

	var judgeOutcome float64
	var evalMS int64
	if spec.Flags.JudgeMode != "off" && r.JudgePool != nil {
		panel := judge.NewPanel(r.JudgePool, r.Embedder)
		evalStart := time.Now()
		jr, jerr := panel.Evaluate(ctx, spec.Task, spec.Assertions, output)
		evalMS = time.Since(evalStart).Milliseconds()
		if jerr == nil {
			judgeOutcome = jr.Outcome
		}
	}

	breakdown, totalReward := reward.ComputeTotalReward(ctx, reward.Input{
		Task: spec.Task,
		Output: output,
		OperatorName: opName,
		JudgeOutcome: judgeOutcome,
		ExecutionTimeMS: latencyMS,
		ExecutionContext: reward.ExecutionContext{
			ToolSuccessRate: 1.0,
			TokensIn: estimateTokens(spec.Task),
			TokensOut: estimateTokens(output),
		},
		TestCmd: spec.Flags.TestCmd,
		TestWeight: spec.Flags.TestWeight,
		EvalOverheadMS: evalMS,
	})

	variant := evoltypes.Variant{
		ID: uuid.NewString(),
		RunID: runID,
		Recipe: mutated,
		Prompt: plan.PromptText,
		Output: output,
		Score: breakdown.Outcome,
		TotalReward: totalReward,
		OutcomeReward: breakdown.Outcome,
		ProcessReward: breakdown.Process,
		CostPenalty: breakdown.Cost,
		RewardMetadata: breakdown.Metadata,
		Operator: opName,
		Groups: op.Group,
		LatencyMS: latencyMS,
		ModelID: resolvedModel,
		CreatedAt: time.Now(),
	}

	now := time.Now()
	s := opStats[opName]
	s.Update(totalReward, latencyMS, now)
	opStats[opName] = s

	key := recipe.EngineStatsKey{Operator: opName, Engine: engineName}
	es := engineStats[key]
	es.Update(totalReward, latencyMS, now)
	engineStats[key] = es

	policy.Update(opName, totalReward, latencyMS, opStats)

	return variant, opName, nil
}

// pairwiseJudge draws a single remote generation from the best recipe
// ("a single remote generation is drawn from the best recipe")
// and has an inverse-frequency sampled judge-pool model cast an A/B/tie
// verdict between the run's local best output and that remote one.
func (r *Runner) pairwiseJudge(ctx context.Context, spec Spec, best evoltypes.Variant) (*PairwiseVerdict, error) {
	if r.JudgePool == nil {
		return nil, fmt.Errorf("evolution: pairwise_groq requires a configured judge pool")
	}
	members, err := r.JudgePool.SampleWithoutReplacement(1)
	if err != nil {
		return nil, err
	}
	remoteEngine, err := gateway.Create(members[0].EngineName, members[0].Config)
	if err != nil {
		return nil, err
	}

	plan := operators.Assemble(best.Recipe, operators.ContextBundle{Task: spec.Task})
	remoteOutput, _, err := remoteEngine.Call(ctx, plan.PromptText, plan.SystemText, gateway.Options{
		Temperature: plan.SamplingOptions.Temperature,
		TopK: plan.SamplingOptions.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("evolution: pairwise remote generation failed: %w", err)
	}

	verdictMembers, err := r.JudgePool.SampleWithoutReplacement(1)
	if err != nil {
		return nil, err
	}
	verdictEngine, err := gateway.Create(verdictMembers[0].EngineName, verdictMembers[0].Config)
	if err != nil {
		return nil, err
	}

	system := "Compare two candidate responses to the same task and judge which is better. " +
		`Respond with strict JSON: {"winner": "a"|"b"|"tie", "rationale": "<short>"}`
	prompt := fmt.Sprintf("Task: %s\n\nResponse A (local):\n%s\n\nResponse B (remote):\n%s", spec.Task, best.Output, remoteOutput)

	text, _, err := verdictEngine.Call(ctx, prompt, system, gateway.Options{Temperature: 0})
	if err != nil {
		return nil, err
	}

	winner, rationale, perr := parsePairwiseVerdict(text)
	if perr != nil {
		return nil, perr
	}
	return &PairwiseVerdict{Winner: winner, Rationale: rationale}, nil
}

func parsePairwiseVerdict(raw string) (string, string, error) {
	match := pairwiseJSONBlock.FindString(raw)
	if match == "" {
		return "", "", fmt.Errorf("evolution: pairwise verdict contains no JSON object")
	}
	var v struct {
		Winner string `json:"winner"`
		Rationale string `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(match), &v); err != nil {
		return "", "", fmt.Errorf("evolution: pairwise verdict JSON invalid: %w", err)
	}
	return v.Winner, v.Rationale, nil
}

func estimateTokens(text string) int {
	return len([]rune(text)) / 4
}
