package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/evolvsys/evolv/pkg/ratelimit"
	"github.com/evolvsys/evolv/pkg/registry"
)

func init() {
	Register("ollama", registry.FromMap(NewOllama, parseOllamaConfig))
}

// DefaultOllamaHost is the default local Ollama listen address.
const DefaultOllamaHost = "http://127.0.0.1:11434"

// OllamaConfig configures the local engine. This is always the engine used
// for generation: "Generation is always local".
type OllamaConfig struct {
	Host string
	Model string
	Timeout time.Duration
	RequestsPerSecond float64 // 0 disables rate limiting
}

func parseOllamaConfig(cfg registry.Config) (OllamaConfig, error) {
	c := OllamaConfig{Host: DefaultOllamaHost, Timeout: 30 * time.Second}
	if host, ok := cfg["host"].(string); ok && host != "" {
		c.Host = host
	}
	if model, ok := cfg["model"].(string); ok && model != "" {
		c.Model = model
	}
	if rps, ok := cfg["requests_per_second"].(float64); ok {
		c.RequestsPerSecond = rps
	}
	if c.Model == "" {
		return c, fmt.Errorf("ollama engine requires 'model' configuration")
	}
	return c, nil
}

// Ollama is the local generation engine, talking to Ollama's
// /api/generate endpoint (and /api/tags for Health) over Engine's
// Call/Stream/Health triad.
type Ollama struct {
	cfg OllamaConfig
	httpClient ratelimit.HTTPDoer
}

// NewOllama constructs the local Ollama engine. When cfg.RequestsPerSecond
// is set, outbound requests are throttled through a
// ratelimit.RateLimitedHTTPClient token bucket sized to allow a short
// burst (2x the per-second rate) — useful when a local ollama instance is
// shared across concurrent variant generations (N parallel
// variants) and the operator wants to cap load on it.
func NewOllama(cfg OllamaConfig) (Engine, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	var doer ratelimit.HTTPDoer = client
	if cfg.RequestsPerSecond > 0 {
		doer = ratelimit.NewRateLimitedHTTPClient(client, ratelimit.NewLimiter(cfg.RequestsPerSecond*2, cfg.RequestsPerSecond))
	}
	return &Ollama{
		cfg: cfg,
		httpClient: doer,
	}, nil
}

type ollamaOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopK *int `json:"top_k,omitempty"`
	NumPredict *int `json:"num_predict,omitempty"`
}

type ollamaGenerateRequest struct {
	Model string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool `json:"stream"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model string `json:"model"`
	Response string `json:"response"`
	Done bool `json:"done"`
	Error string `json:"error,omitempty"`
}

func (o *Ollama) buildOptions(opts Options) *ollamaOptions {
	norm := opts.Normalize()
	var out ollamaOptions
	set := false
	if norm.Temperature != 0 {
		out.Temperature = &norm.Temperature
		set = true
	}
	if norm.TopK != 0 {
		out.TopK = &norm.TopK
		set = true
	}
	if norm.MaxTokens != 0 {
		out.NumPredict = &norm.MaxTokens
		set = true
	}
	if !set {
		return nil
	}
	return &out
}

func (o *Ollama) Call(ctx context.Context, prompt, system string, opts Options) (string, string, error) {
	reqBody := ollamaGenerateRequest{
		Model: o.cfg.Model,
		Prompt: prompt,
		System: system,
		Stream: false,
		Options: o.buildOptions(opts),
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", "", &ModelError{Engine: o.Name(), Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.Host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", "", &ModelError{Engine: o.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", "", &ModelError{Engine: o.Name(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", &ModelError{Engine: o.Name(), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", "", &ModelError{Engine: o.Name(), Err: fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))}
	}

	var genResp ollamaGenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", "", &ModelError{Engine: o.Name(), Err: fmt.Errorf("parse response: %w", err)}
	}
	if genResp.Error != "" {
		return "", "", &ModelError{Engine: o.Name(), Err: fmt.Errorf("ollama error: %s", genResp.Error)}
	}

	return genResp.Response, o.cfg.Model, nil
}

// Stream issues a streaming /api/generate request and decodes newline-
// delimited JSON chunks into tokens.
func (o *Ollama) Stream(ctx context.Context, prompt, system string, opts Options) (<-chan Token, error) {
	reqBody := ollamaGenerateRequest{
		Model: o.cfg.Model,
		Prompt: prompt,
		System: system,
		Stream: true,
		Options: o.buildOptions(opts),
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ModelError{Engine: o.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.Host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, &ModelError{Engine: o.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, &ModelError{Engine: o.Name(), Err: err}
	}

	out := make(chan Token)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		dec := json.NewDecoder(resp.Body)
		for {
			var chunk ollamaGenerateResponse
			if err := dec.Decode(&chunk); err != nil {
				return
			}
			select {
			case out <- Token{Text: chunk.Response, Done: chunk.Done}:
			case <-ctx.Done():
				return
			}
			if chunk.Done {
				return
			}
		}
	}()
	return out, nil
}

func (o *Ollama) Health(ctx context.Context) (Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.Host+"/api/tags", nil)
	if err != nil {
		return Health{Status: "down"}, err
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return Health{Status: "down", Detail: err.Error()}, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Health{Status: "down", Detail: fmt.Sprintf("status %d", resp.StatusCode)}, nil
	}
	return Health{Status: "ok"}, nil
}

func (o *Ollama) Name() string { return "ollama" }
