// Package proposer implements the SME outer loop's Proposer:
// sample a model, prompt it for a small JSON-described unified diff,
// parse/sanitize/validate the response, safety-filter it, and enforce the
// declared area — producing either a MetaPatch or a Rejection.
package proposer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evolvsys/evolv/internal/gateway"
	"github.com/evolvsys/evolv/internal/judge"
	"github.com/evolvsys/evolv/pkg/evoltypes"
	"github.com/evolvsys/evolv/pkg/metrics"
	"github.com/evolvsys/evolv/pkg/registry"
)

// Response is the outcome of one Generate batch: accepted patches,
// rejections with their reasons, and batch-level timing.
type Response struct {
	Patches []evoltypes.MetaPatch
	Rejected []evoltypes.Rejection
	TotalGenerated int
	ExecutionTimeMS int64
}

// Proposer generates patches, selecting its model from the shared
// inverse-frequency judge pool ("Selection of proposer model"),
// falling back to a fixed default engine when the pool is empty or unset.
type Proposer struct {
	JudgePool *judge.ModelPool
	DefaultEngineName string
	DefaultEngineConfig registry.Config

	// Metrics, when set, receives proposed/rejected patch counters,
	// exported via pkg/metrics. Optional: a nil Metrics is a no-op.
	Metrics *metrics.Metrics
}

func (p *Proposer) pickEngine() (gateway.Engine, string, error) {
	if p.JudgePool != nil {
		if members, err := p.JudgePool.SampleWithoutReplacement(1); err == nil && len(members) == 1 {
			engine, err := gateway.Create(members[0].EngineName, members[0].Config)
			if err == nil {
				return engine, members[0].EngineName, nil
			}
		}
	}
	engine, err := gateway.Create(p.DefaultEngineName, p.DefaultEngineConfig)
	return engine, p.DefaultEngineName, err
}

// Generate produces up to n proposals, injecting the deterministic smoke
// patch if every attempt was rejected ("Smoke patch").
func (p *Proposer) Generate(ctx context.Context, n int) Response {
	start := time.Now()
	resp := Response{TotalGenerated: n}

	for i := 0; i < n; i++ {
		patch, rejection := p.genOne(ctx, nil)
		if rejection != nil {
			resp.Rejected = append(resp.Rejected, *rejection)
			if p.Metrics != nil {
				p.Metrics.IncPatchRejected()
			}
			continue
		}
		resp.Patches = append(resp.Patches, *patch)
		if p.Metrics != nil {
			p.Metrics.IncPatchProposed()
		}
	}

	if len(resp.Patches) == 0 {
		resp.Patches = append(resp.Patches, smokePatch())
	}

	resp.ExecutionTimeMS = time.Since(start).Milliseconds()
	return resp
}

// genOne drives one proposal attempt through prompt -> call -> parse ->
// enforce, with a single auto-retry against a freshly sampled model on
// failure ("Auto-retry").
func (p *Proposer) genOne(ctx context.Context, priorRejection *evoltypes.Rejection) (*evoltypes.MetaPatch, *evoltypes.Rejection) {
	patch, rejection := p.attempt(ctx, priorRejection)
	if rejection == nil {
		return patch, nil
	}
	return p.attempt(ctx, rejection)
}

func (p *Proposer) attempt(ctx context.Context, rejection *evoltypes.Rejection) (*evoltypes.MetaPatch, *evoltypes.Rejection) {
	engine, modelName, err := p.pickEngine()
	if err != nil {
		return nil, &evoltypes.Rejection{Reason: evoltypes.ReasonBadJSON, Detail: err.Error(), Origin: modelName}
	}

	prompt := makePrompt(rejection)
	raw, _, err := engine.Call(ctx, prompt, "", gateway.Options{Temperature: 0.7})
	if err != nil {
		return nil, &evoltypes.Rejection{Reason: evoltypes.ReasonBadJSON, Detail: err.Error(), Origin: modelName}
	}

	return p.parseAndEnforce(raw, modelName)
}

func (p *Proposer) parseAndEnforce(raw, origin string) (*evoltypes.MetaPatch, *evoltypes.Rejection) {
	candidate, err := extractJSONObject(raw)
	if err != nil {
		return nil, &evoltypes.Rejection{Reason: evoltypes.ReasonBadJSON, Detail: err.Error(), Origin: origin}
	}

	parsed, err := looseParse(candidate)
	if err != nil {
		return nil, &evoltypes.Rejection{Reason: evoltypes.ReasonBadJSON, Detail: err.Error(), Origin: origin}
	}

	lines, err := diffLinesFrom(parsed)
	if err != nil {
		return nil, &evoltypes.Rejection{Reason: evoltypes.ReasonBadDiffFormat, Detail: err.Error(), Origin: origin}
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}

	if err := validateHeaders(lines); err != nil {
		return nil, &evoltypes.Rejection{Reason: evoltypes.ReasonBadDiffFormat, Detail: err.Error(), Origin: origin}
	}
	lines = ensureFinalNewline(lines)

	delta := locDelta(lines)
	if delta > maxLOCDelta {
		return nil, &evoltypes.Rejection{Reason: evoltypes.ReasonLOCDeltaExceeded, Detail: fmt.Sprintf("loc_delta %d exceeds max %d", delta, maxLOCDelta), Origin: origin}
	}

	paths := modifiedPaths(lines)
	if safe, reason := checkSafety(lines, paths); !safe {
		return nil, &evoltypes.Rejection{Reason: evoltypes.ReasonSafety, Detail: reason, Origin: origin}
	}

	area := evoltypes.Area(parsed.Area)
	if !evoltypes.IsAllowedArea(area) {
		if len(paths) > 0 {
			area = inferArea(paths[0])
		}
		if !evoltypes.IsAllowedArea(area) {
			return nil, &evoltypes.Rejection{Reason: evoltypes.ReasonBadArea, Detail: fmt.Sprintf("area %q is not one of the allowed areas", parsed.Area), Origin: origin}
		}
	}
	if !pathsWithinArea(area, paths) {
		return nil, &evoltypes.Rejection{Reason: evoltypes.ReasonPathNotAllowed, Detail: "diff touches paths outside its declared area", Origin: origin, Area: area}
	}

	notes := parsed.Rationale
	if parsed.GoalTag != "" {
		notes = "[" + parsed.GoalTag + "] " + notes
	}

	patch := evoltypes.MetaPatch{
		ID: uuid.NewString(),
		Area: area,
		OriginModel: origin,
		Notes: notes,
		UnifiedDiff: joinLines(lines),
		LOCDelta: delta,
	}
	return &patch, nil
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
