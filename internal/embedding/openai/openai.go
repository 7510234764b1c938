package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Embedder produces dense vectors through an OpenAI-compatible embeddings API.
// Works against api.openai.com as well as local servers exposing the same
// endpoint. The API key is read from the configured environment variable.
type Embedder struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
}

// Config configures the OpenAI-compatible embedder.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewEmbedder creates an embedder from the given configuration.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("openai embedder: missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Embedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.EmbeddingModel(cfg.Model),
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "openai" }

// Dimension returns the vector width, or 0 before the first Encode call.
func (e *Embedder) Dimension() int { return e.dimension }

// Encode embeds all texts in one request. An empty input returns an empty
// matrix without a round-trip.
func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embed: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	if e.dimension == 0 && len(out[0]) > 0 {
		e.dimension = len(out[0])
	}
	return out, nil
}
