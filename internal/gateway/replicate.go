package gateway

import (
	"context"
	"fmt"
	"strings"

	replicatego "github.com/replicate/replicate-go"

	"github.com/evolvsys/evolv/pkg/registry"
)

func init() {
	Register("replicate", registry.FromMap(NewReplicateEngine, parseReplicateConfig))
}

// ReplicateConfig configures a remote evaluation engine backed by
// Replicate's hosted-model API.
type ReplicateConfig struct {
	Model string
	APIKey string
	Seed int
}

func parseReplicateConfig(cfg registry.Config) (ReplicateConfig, error) {
	c := ReplicateConfig{Seed: 9}
	c.Model, _ = cfg["model"].(string)
	c.APIKey, _ = cfg["api_key"].(string)
	if c.Model == "" || c.APIKey == "" {
		return c, fmt.Errorf("replicate engine requires 'model' and 'api_key' configuration")
	}
	if seed, ok := cfg["seed"].(int); ok {
		c.Seed = seed
	}
	return c, nil
}

// ReplicateEngine wraps replicate-go's Client.Run to satisfy Engine's
// Call/Stream/Health surface. Replicate does not support multiple
// generations or streaming per call, so Stream here simply wraps a
// single Call, same as the Bedrock and OpenAI-compat engines do.
type ReplicateEngine struct {
	client *replicatego.Client
	model string
	seed int
}

// NewReplicateEngine constructs a Replicate-backed engine (usable, like
// any registered engine, as a judge-pool member).
func NewReplicateEngine(cfg ReplicateConfig) (Engine, error) {
	client, err := replicatego.NewClient(replicatego.WithToken(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("replicate: failed to create client: %w", err)
	}
	return &ReplicateEngine{client: client, model: cfg.Model, seed: cfg.Seed}, nil
}

func (e *ReplicateEngine) Call(ctx context.Context, prompt, system string, opts Options) (string, string, error) {
	norm := opts.Normalize()
	fullPrompt := prompt
	if system != "" {
		fullPrompt = system + "\n\n" + prompt
	}

	input := replicatego.PredictionInput{
		"prompt": fullPrompt,
		"temperature": norm.Temperature,
		"seed": e.seed,
	}
	if norm.MaxTokens > 0 {
		input["max_length"] = norm.MaxTokens
	}

	output, err := e.client.Run(ctx, e.model, input, nil)
	if err != nil {
		return "", "", &ModelError{Engine: e.Name(), Err: err}
	}
	return extractText(output), e.model, nil
}

func extractText(output replicatego.PredictionOutput) string {
	switch v := output.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, "")
	case []any:
		var b strings.Builder
		for _, item := range v {
			if s, ok := item.(string); ok {
				b.WriteString(s)
			}
		}
		return b.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (e *ReplicateEngine) Stream(ctx context.Context, prompt, system string, opts Options) (<-chan Token, error) {
	text, _, err := e.Call(ctx, prompt, system, opts)
	if err != nil {
		return nil, err
	}
	out := make(chan Token, 1)
	out <- Token{Text: text, Done: true}
	close(out)
	return out, nil
}

func (e *ReplicateEngine) Health(ctx context.Context) (Health, error) {
	return Health{Status: "ok"}, nil
}

func (e *ReplicateEngine) Name() string { return "replicate:" + e.model }
