// Package app assembles the application components from configuration.
// It is shared by the command-line entry points.
package app

import (
	"fmt"
	"time"

	"localrag/internal/config"
	"localrag/internal/domain"
	"localrag/internal/embedding/ollama"
	"localrag/internal/embedding/openai"
	"localrag/internal/llm"
	"localrag/internal/prompt"
	"localrag/internal/service"
	"localrag/internal/vectorstore/memory"
)

// NewEmbedder builds the configured embedding provider.
func NewEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "ollama", "":
		oc := cfg.Embedder.Ollama
		if oc == nil {
			oc = &config.OllamaEmbedderConfig{}
		}
		return ollama.NewEmbedder(ollama.Config{
			Host:    oc.Host,
			Model:   oc.Model,
			Timeout: time.Duration(oc.TimeoutSecs) * time.Second,
		})
	case "openai":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			return nil, fmt.Errorf("openai embedder selected but not configured")
		}
		return openai.NewEmbedder(openai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown embedder type: %s", cfg.Embedder.Type)
	}
}

// NewService wires embedder, store, prompt assembler and generation engine
// into a ready RAG service.
func NewService(cfg *config.AppConfig) (*service.RAGService, error) {
	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	store := memory.NewStorage(embedder)

	engine, err := llm.NewEngine(llm.Config{
		Host:          cfg.Generator.Host,
		Model:         cfg.Generator.Model,
		ContextWindow: cfg.Generator.ContextWindow,
		Threads:       cfg.Generator.Threads,
		Timeout:       time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	sampling := service.Sampling{
		TopP:          cfg.Generator.TopP,
		TopK:          cfg.Generator.TopK,
		RepeatPenalty: cfg.Generator.RepeatPenalty,
		Stop:          cfg.Generator.Stop,
	}
	genTimeout := time.Duration(cfg.Generator.TimeoutSecs) * time.Second
	return service.NewRAGService(store, prompt.NewAssembler(), engine, sampling, genTimeout), nil
}

// QueryOptions derives the per-question defaults from configuration.
func QueryOptions(cfg *config.AppConfig) service.QueryOptions {
	return service.QueryOptions{
		TopK:          cfg.Retrieval.TopK,
		MinSimilarity: cfg.Retrieval.MinSimilarity,
		MaxTokens:     cfg.Generator.MaxTokens,
		Temperature:   cfg.Generator.Temperature,
	}
}
