package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ollama/ollama/api"

	"localrag/internal/domain"
)

// Engine runs completions against a model served by a local Ollama instance.
// The model name, context window and thread count are fixed at construction.
// Completions are serialized: the underlying model context is not safe for
// concurrent calls.
type Engine struct {
	mu            sync.Mutex
	client        *api.Client
	model         string
	contextWindow int
	threads       int
}

// Config configures the generation engine.
type Config struct {
	Host          string
	Model         string
	ContextWindow int
	Threads       int
	Timeout       time.Duration
}

// NewEngine creates a generation engine for the configured model.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm engine: model name is required")
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 2048
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	base, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("llm engine: invalid host %q: %w", cfg.Host, err)
	}
	return &Engine{
		client:        api.NewClient(base, &http.Client{Timeout: timeout}),
		model:         cfg.Model,
		contextWindow: cfg.ContextWindow,
		threads:       cfg.Threads,
	}, nil
}

// ContextWindow reports the model's context size in tokens.
func (e *Engine) ContextWindow() int { return e.contextWindow }

// Complete runs a single completion and returns the accumulated text.
// The prompt is checked against the context window before the model is
// invoked; an oversized prompt fails with domain.ErrContextOverflow rather
// than being silently cut by the server.
func (e *Engine) Complete(ctx context.Context, prompt string, params domain.GenerationParams) (string, error) {
	if tokens := EstimateTokens(prompt); tokens > e.contextWindow {
		return "", fmt.Errorf("llm complete: %w: ~%d tokens for a %d-token window",
			domain.ErrContextOverflow, tokens, e.contextWindow)
	}

	stream := false
	req := &api.GenerateRequest{
		Model:   e.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: e.options(params),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var out strings.Builder
	err := e.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("llm complete: %w", err)
	}
	return out.String(), nil
}

func (e *Engine) options(params domain.GenerationParams) map[string]any {
	opts := map[string]any{
		"num_ctx":        e.contextWindow,
		"num_predict":    params.MaxTokens,
		"temperature":    params.Temperature,
		"top_p":          params.TopP,
		"top_k":          params.TopK,
		"repeat_penalty": params.RepeatPenalty,
	}
	if e.threads > 0 {
		opts["num_thread"] = e.threads
	}
	if len(params.Stop) > 0 {
		opts["stop"] = params.Stop
	}
	return opts
}

// EstimateTokens approximates the token count of a prompt. Four characters
// per token is a conservative rule of thumb for English text; overflow
// decisions only need the right order of magnitude.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
