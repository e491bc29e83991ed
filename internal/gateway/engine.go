// Package gateway provides the LM Gateway: a uniform call/stream/health
// contract over a local engine (always used for generation) and remote
// engines (permitted only for evaluation/judging).
//
// Each concrete engine self-registers via init, keyed by name, so the
// gateway never needs a compile-time switch over engine kinds.
package gateway

import (
	"context"

	"github.com/evolvsys/evolv/pkg/registry"
)

// Options are the normalized sampling options recognized by every engine.
// The gateway is responsible for clamping temperature to [0,2] and
// resolving the num_predict/max_tokens naming split.
type Options struct {
	Temperature float64
	TopK int
	MaxTokens int
}

// Normalize clamps temperature into the engine-call bound ("Engine
// options are normalized before dispatch: token caps, temperature clamp
// 0..2"). This is a wider bound than recipe.Params' own [0.1,1.5] operator
// bound; it exists so the gateway is defensive regardless of caller.
func (o Options) Normalize() Options {
	out := o
	if out.Temperature < 0 {
		out.Temperature = 0
	}
	if out.Temperature > 2 {
		out.Temperature = 2
	}
	return out
}

// Health is the result of an engine health probe.
type Health struct {
	Status string // "ok" or "down"
	Detail string
}

// Token is one chunk of a streamed generation.
type Token struct {
	Text string
	Done bool
}

// Engine is the uniform generation contract. Implementations wrap a single
// backend (Ollama, Bedrock, Replicate, any OpenAI-compatible
// HTTP API).
type Engine interface {
	// Call performs a single blocking generation, returning the text and
	// the resolved model id actually used (useful when model is an alias).
	Call(ctx context.Context, prompt, system string, opts Options) (text, resolvedModelID string, err error)
	// Stream returns a channel of tokens; the channel is closed when the
	// generation finishes or ctx is cancelled. Finite, not restartable.
	Stream(ctx context.Context, prompt, system string, opts Options) (<-chan Token, error)
	// Health reports whether the engine is reachable.
	Health(ctx context.Context) (Health, error)
	// Name is the engine's registry key.
	Name() string
}

// Registry is the global engine registry.
var Registry = registry.New[Engine]("gateway-engines")

// Register adds an engine factory to the global registry. Called from
// init in each engine's defining file.
func Register(name string, factory func(registry.Config) (Engine, error)) {
	Registry.Register(name, factory)
}

// List returns all registered engine names.
func List() []string {
	return Registry.List()
}

// Create instantiates an engine by name.
func Create(name string, cfg registry.Config) (Engine, error) {
	return Registry.Create(name, cfg)
}

// ModelError wraps engine failures (unreachable, non-200, parse failure)
// error taxonomy: generation iteration is skipped, the loop
// continues.
type ModelError struct {
	Engine string
	Err error
}

func (e *ModelError) Error() string {
	return "gateway: " + e.Engine + ": " + e.Err.Error()
}

func (e *ModelError) Unwrap() error { return e.Err }
