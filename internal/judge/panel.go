package judge

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evolvsys/evolv/internal/embed"
	"github.com/evolvsys/evolv/internal/gateway"
)

// maxSemanticChars is the output truncation length for the semantic-
// similarity embedding (first ~1500 chars).
const maxSemanticChars = 1500

// tieBreakThreshold triggers the third-judge tie-break call when the two
// judges' scores diverge by at least this much.
const tieBreakThreshold = 0.3

// Evaluation records one judge model's outcome, successful or not.
type Evaluation struct {
	ModelName string
	Score *JudgeScore
	Err error
	DurationMS int64
}

// Result is the Judge Panel's full verdict for one variant.
type Result struct {
	Outcome float64
	AIScore *float64
	SemanticScore float64
	Evaluations []Evaluation
	TieBreakEvaluation *Evaluation
	TotalJudgeLatencyMS int64
}

// Panel is the Judge Panel: two inverse-frequency sampled judges, a
// tie-breaker on disagreement, blended with embedding-based semantic
// similarity.
type Panel struct {
	Pool *ModelPool
	Embedder embed.Embedder
}

// NewPanel constructs a Judge Panel over the given model pool and
// embedding provider.
func NewPanel(pool *ModelPool, embedder embed.Embedder) *Panel {
	return &Panel{Pool: pool, Embedder: embedder}
}

// Evaluate runs the full panel procedure for one (task, assertions,
// output) triple and returns the blended outcome score.
func (p *Panel) Evaluate(ctx context.Context, task string, assertions []string, output string) (Result, error) {
	members, err := p.Pool.SampleWithoutReplacement(2)
	if err != nil {
		return Result{}, err
	}

	evals := p.callJudges(ctx, members, task, assertions, output, nil)

	var successes []Evaluation
	for i := range evals {
		if evals[i].Score != nil {
			successes = append(successes, evals[i])
		}
	}

	result := Result{Evaluations: evals}
	for _, e := range evals {
		result.TotalJudgeLatencyMS += e.DurationMS
	}

	switch {
	case len(successes) >= 2 && abs(successes[0].Score.Score-successes[1].Score.Score) >= tieBreakThreshold:
		tieMembers, tieErr := p.Pool.SampleWithoutReplacement(1)
		if tieErr == nil {
			tieEvals := p.callJudges(ctx, tieMembers, task, assertions, output, &tieBreakContext{
				first: *successes[0].Score,
				second: *successes[1].Score,
			})
			if len(tieEvals) == 1 {
				result.TieBreakEvaluation = &tieEvals[0]
				result.TotalJudgeLatencyMS += tieEvals[0].DurationMS
				if tieEvals[0].Score != nil {
					s := tieEvals[0].Score.Score
					result.AIScore = &s
				}
			}
		}
		if result.AIScore == nil {
			mean := mean2(successes)
			result.AIScore = &mean
		}
	case len(successes) > 0:
		mean := mean2(successes)
		result.AIScore = &mean
	}

	result.SemanticScore = p.semanticScore(ctx, task, assertions, output)

	if result.AIScore != nil {
		result.Outcome = 0.1*result.SemanticScore + 0.9*(*result.AIScore)
	} else {
		result.Outcome = result.SemanticScore
	}

	return result, nil
}

type tieBreakContext struct {
	first JudgeScore
	second JudgeScore
}

func (p *Panel) callJudges(ctx context.Context, members []PoolMember, task string, assertions []string, output string, tie *tieBreakContext) []Evaluation {
	evals := make([]Evaluation, len(members))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range members {
		i, m := i, m
		g.Go(func() error {
			start := time.Now()
			eng, err := gateway.Create(m.EngineName, m.Config)
			if err != nil {
				evals[i] = Evaluation{ModelName: m.EngineName, Err: err, DurationMS: time.Since(start).Milliseconds()}
				return nil
			}

			system := SystemPrompt(task, assertions)
			prompt := EvaluatorPrompt(output)
			if tie != nil {
				prompt = TieBreakPrompt(output, tie.first, tie.second)
			}

			text, _, err := eng.Call(gctx, prompt, system, gateway.Options{Temperature: 0})
			dur := time.Since(start).Milliseconds()
			if err != nil {
				evals[i] = Evaluation{ModelName: m.EngineName, Err: err, DurationMS: dur}
				return nil
			}

			score, parseErr := ParseJudgeScore(text)
			if parseErr != nil {
				evals[i] = Evaluation{ModelName: m.EngineName, Err: parseErr, DurationMS: dur}
				return nil
			}
			evals[i] = Evaluation{ModelName: m.EngineName, Score: &score, DurationMS: dur}
			return nil
		})
	}
	_ = g.Wait()
	return evals
}

func (p *Panel) semanticScore(ctx context.Context, task string, assertions []string, output string) float64 {
	if p.Embedder == nil {
		return 0
	}
	truncated := output
	if len([]rune(truncated)) > maxSemanticChars {
		truncated = string([]rune(truncated)[:maxSemanticChars])
	}

	taskVec, err := p.Embedder.Embed(ctx, task)
	if err != nil {
		taskVec = embed.ZeroVector(p.Embedder.Dim())
	}
	outVec, err := p.Embedder.Embed(ctx, truncated)
	if err != nil {
		outVec = embed.ZeroVector(p.Embedder.Dim())
	}
	taskSim := embed.Cosine(taskVec, outVec)

	if len(assertions) == 0 {
		return taskSim
	}

	var assertionSum float64
	for _, a := range assertions {
		aVec, err := p.Embedder.Embed(ctx, a)
		if err != nil {
			aVec = embed.ZeroVector(p.Embedder.Dim())
		}
		assertionSum += embed.Cosine(aVec, outVec)
	}
	assertionMean := assertionSum / float64(len(assertions))

	return 0.5*taskSim + 0.5*assertionMean
}

func mean2(evals []Evaluation) float64 {
	var sum float64
	for _, e := range evals {
		sum += e.Score.Score
	}
	return sum / float64(len(evals))
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
