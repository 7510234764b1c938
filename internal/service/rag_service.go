package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"localrag/internal/domain"
	"localrag/internal/llm"
	"localrag/internal/prompt"
)

// NoRelevantDocuments is the fixed response returned when retrieval comes
// back empty. The generator is never invoked in that case.
const NoRelevantDocuments = "No relevant documents were found to answer your question."

// QueryOptions control retrieval and decoding for a single question.
// Zero values fall back to the service defaults.
type QueryOptions struct {
	TopK          int
	MinSimilarity float64
	MaxTokens     int
	Temperature   float64
}

// Sampling holds the fixed decoding parameters applied to every completion.
type Sampling struct {
	TopP          float64
	TopK          int
	RepeatPenalty float64
	Stop          []string
}

// DefaultSampling returns the decoding defaults used when none are configured.
func DefaultSampling() Sampling {
	return Sampling{TopP: 0.9, TopK: 40, RepeatPenalty: 1.1}
}

// RAGService ties the document store, prompt assembler and generator into
// the two operations the application exposes: adding documents and answering
// questions grounded in them.
type RAGService struct {
	store      domain.DocumentStore
	assembler  *prompt.Assembler
	generator  domain.Generator
	sampling   Sampling
	genTimeout time.Duration
}

// NewRAGService assembles the orchestrator from its collaborators.
// genTimeout bounds a single generation call; zero disables the bound.
func NewRAGService(store domain.DocumentStore, assembler *prompt.Assembler, generator domain.Generator, sampling Sampling, genTimeout time.Duration) *RAGService {
	if sampling.TopP == 0 && sampling.TopK == 0 && sampling.RepeatPenalty == 0 && sampling.Stop == nil {
		sampling = DefaultSampling()
	}
	return &RAGService{
		store:      store,
		assembler:  assembler,
		generator:  generator,
		sampling:   sampling,
		genTimeout: genTimeout,
	}
}

// AddDocuments ingests texts with optional metadata into the store.
func (s *RAGService) AddDocuments(ctx context.Context, texts []string, metadata []map[string]any) (int, error) {
	return s.store.AddDocuments(ctx, texts, metadata)
}

// GenerateResponse answers a question using retrieved context.
//
// A generator failure does not propagate: the result instead carries a
// diagnostic response together with the retrieval provenance, so a
// generation hiccup never loses the fact that retrieval succeeded.
func (s *RAGService) GenerateResponse(ctx context.Context, query string, opts QueryOptions) (domain.GenerationResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.GenerationResult{}, domain.ErrInvalidQuery
	}
	applyDefaults(&opts)

	results, err := s.store.Search(ctx, query, opts.TopK, opts.MinSimilarity)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("generate response: %w", err)
	}
	if len(results) == 0 {
		return domain.GenerationResult{
			Response:  NoRelevantDocuments,
			Documents: []domain.RetrievalResult{},
		}, nil
	}

	promptText := s.fitPrompt(query, results, opts.MaxTokens)

	params := domain.GenerationParams{
		MaxTokens:     opts.MaxTokens,
		Temperature:   opts.Temperature,
		TopP:          s.sampling.TopP,
		TopK:          s.sampling.TopK,
		RepeatPenalty: s.sampling.RepeatPenalty,
		Stop:          s.sampling.Stop,
	}

	genCtx := ctx
	if s.genTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.genTimeout)
		defer cancel()
	}

	answer, err := s.generator.Complete(genCtx, promptText, params)
	if err != nil {
		log.Printf("generation failed, returning degraded result: %v", err)
		return domain.GenerationResult{
			Response:  fmt.Sprintf("An error occurred while generating the answer: %v", err),
			Documents: results,
		}, nil
	}

	return domain.GenerationResult{
		Response:  strings.TrimSpace(answer),
		Documents: results,
	}, nil
}

// fitPrompt assembles the largest prompt that fits the generator's context
// window, leaving room for the response. Documents are dropped lowest
// similarity first; the query itself is never truncated. A prompt that is
// still too large with zero documents is left for the generator's own
// overflow guard to reject.
func (s *RAGService) fitPrompt(query string, results []domain.RetrievalResult, maxTokens int) string {
	budget := s.generator.ContextWindow() - maxTokens
	n := len(results)
	p := s.assembler.BuildN(query, results, n)
	for n > 0 && llm.EstimateTokens(p) > budget {
		n--
		p = s.assembler.BuildN(query, results, n)
	}
	if n < len(results) {
		log.Printf("prompt truncated: kept %d of %d retrieved documents", n, len(results))
	}
	return p
}

func applyDefaults(opts *QueryOptions) {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 512
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
}
