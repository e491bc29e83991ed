package gateway

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/evolvsys/evolv/pkg/registry"
)

func init() {
	Register("openaicompat", registry.FromMap(NewOpenAICompatEngine, parseOpenAICompatConfig))
}

// OpenAICompatConfig configures a remote evaluation engine speaking the
// OpenAI chat-completions wire format, covering any of the judge-pool
// backends (Groq, Mistral, Together, DeepInfra, Fireworks, ...) that
// expose that API shape.
type OpenAICompatConfig struct {
	Model string
	APIKey string
	BaseURL string
}

func parseOpenAICompatConfig(cfg registry.Config) (OpenAICompatConfig, error) {
	c := OpenAICompatConfig{}
	c.Model, _ = cfg["model"].(string)
	c.APIKey, _ = cfg["api_key"].(string)
	c.BaseURL, _ = cfg["base_url"].(string)
	if c.Model == "" || c.APIKey == "" {
		return c, fmt.Errorf("openaicompat engine requires 'model' and 'api_key' configuration")
	}
	return c, nil
}

// OpenAICompatEngine wraps go-openai's client to satisfy Engine's
// Call/Stream/Health triad against any OpenAI-compatible endpoint.
type OpenAICompatEngine struct {
	client *goopenai.Client
	model string
}

// NewOpenAICompatEngine constructs a judge-pool member backed by any
// OpenAI-compatible HTTP API.
func NewOpenAICompatEngine(cfg OpenAICompatConfig) (Engine, error) {
	conf := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	return &OpenAICompatEngine{
		client: goopenai.NewClientWithConfig(conf),
		model: cfg.Model,
	}, nil
}

func (e *OpenAICompatEngine) Call(ctx context.Context, prompt, system string, opts Options) (string, string, error) {
	norm := opts.Normalize()
	messages := []goopenai.ChatCompletionMessage{}
	if system != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: prompt})

	req := goopenai.ChatCompletionRequest{
		Model: e.model,
		Messages: messages,
		Temperature: float32(norm.Temperature),
	}
	if norm.MaxTokens > 0 {
		req.MaxTokens = norm.MaxTokens
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", "", &ModelError{Engine: e.Name(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", "", &ModelError{Engine: e.Name(), Err: fmt.Errorf("empty response")}
	}
	return resp.Choices[0].Message.Content, e.model, nil
}

func (e *OpenAICompatEngine) Stream(ctx context.Context, prompt, system string, opts Options) (<-chan Token, error) {
	text, _, err := e.Call(ctx, prompt, system, opts)
	if err != nil {
		return nil, err
	}
	out := make(chan Token, 1)
	out <- Token{Text: text, Done: true}
	close(out)
	return out, nil
}

func (e *OpenAICompatEngine) Health(ctx context.Context) (Health, error) {
	return Health{Status: "ok"}, nil
}

func (e *OpenAICompatEngine) Name() string { return "openaicompat:" + e.model }
