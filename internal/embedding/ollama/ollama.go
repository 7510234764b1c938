package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// Embedder produces dense vectors through a local Ollama server.
// The vector dimension is fixed by the model and learned on the first call.
type Embedder struct {
	client    *api.Client
	model     string
	dimension int
}

// Config configures the Ollama embedder.
type Config struct {
	Host    string
	Model   string
	Timeout time.Duration
}

// NewEmbedder creates an embedder talking to the Ollama server at cfg.Host.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	base, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: invalid host %q: %w", cfg.Host, err)
	}
	return &Embedder{
		client: api.NewClient(base, &http.Client{Timeout: timeout}),
		model:  cfg.Model,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "ollama" }

// Dimension returns the vector width, or 0 before the first Encode call.
func (e *Embedder) Dimension() int { return e.dimension }

// Encode embeds all texts in a single batched request. An empty input
// returns an empty matrix without contacting the server.
func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	if e.dimension == 0 && len(resp.Embeddings[0]) > 0 {
		e.dimension = len(resp.Embeddings[0])
	}
	return resp.Embeddings, nil
}
