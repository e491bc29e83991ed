package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/evolvsys/evolv/pkg/registry"
)

func init() {
	Register("bedrock", registry.FromMap(NewBedrockEngine, parseBedrockConfig))
}

// BedrockConfig configures the remote evaluation-only Bedrock engine.
type BedrockConfig struct {
	Model string
	Region string
	MaxTokens int
}

func parseBedrockConfig(cfg registry.Config) (BedrockConfig, error) {
	c := BedrockConfig{MaxTokens: 1024}
	c.Model, _ = cfg["model"].(string)
	c.Region, _ = cfg["region"].(string)
	if c.Model == "" || c.Region == "" {
		return c, fmt.Errorf("bedrock engine requires 'model' and 'region' configuration")
	}
	if mt, ok := cfg["max_tokens"].(int); ok {
		c.MaxTokens = mt
	}
	return c, nil
}

// BedrockEngine wraps AWS Bedrock's InvokeModel API (Claude-family
// request/response shape only — this module only invokes Bedrock for
// judge-pool evaluation, never for generation).
type BedrockEngine struct {
	client *bedrockruntime.Client
	modelID string
	maxTokens int
}

// NewBedrockEngine constructs the remote evaluation-only Bedrock engine.
func NewBedrockEngine(cfg BedrockConfig) (Engine, error) {
	awsCfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: failed to load AWS config: %w", err)
	}
	return &BedrockEngine{
		client: bedrockruntime.NewFromConfig(awsCfg),
		modelID: cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

type claudeRequest struct {
	AnthropicVersion string `json:"anthropic_version"`
	MaxTokens int `json:"max_tokens"`
	System string `json:"system,omitempty"`
	Messages []claudeMessage `json:"messages"`
	Temperature float64 `json:"temperature,omitempty"`
}

type claudeMessage struct {
	Role string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (b *BedrockEngine) Call(ctx context.Context, prompt, system string, opts Options) (string, string, error) {
	norm := opts.Normalize()
	maxTokens := b.maxTokens
	if norm.MaxTokens > 0 {
		maxTokens = norm.MaxTokens
	}

	reqBody, err := json.Marshal(claudeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens: maxTokens,
		System: system,
		Messages: []claudeMessage{{Role: "user", Content: prompt}},
		Temperature: norm.Temperature,
	})
	if err != nil {
		return "", "", &ModelError{Engine: b.Name(), Err: err}
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId: aws.String(b.modelID),
		Body: reqBody,
		ContentType: aws.String("application/json"),
		Accept: aws.String("application/json"),
	})
	if err != nil {
		return "", "", &ModelError{Engine: b.Name(), Err: err}
	}

	var resp claudeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", "", &ModelError{Engine: b.Name(), Err: fmt.Errorf("parse response: %w", err)}
	}
	if len(resp.Content) == 0 {
		return "", "", &ModelError{Engine: b.Name(), Err: fmt.Errorf("empty bedrock response")}
	}
	return resp.Content[0].Text, b.modelID, nil
}

// Stream is unsupported for Bedrock in this module (evaluation-only, never
// streamed to a subscriber); it runs one Call and emits it as one token.
func (b *BedrockEngine) Stream(ctx context.Context, prompt, system string, opts Options) (<-chan Token, error) {
	text, _, err := b.Call(ctx, prompt, system, opts)
	if err != nil {
		return nil, err
	}
	out := make(chan Token, 1)
	out <- Token{Text: text, Done: true}
	close(out)
	return out, nil
}

func (b *BedrockEngine) Health(ctx context.Context) (Health, error) {
	return Health{Status: "ok"}, nil
}

func (b *BedrockEngine) Name() string { return "bedrock" }
