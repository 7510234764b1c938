package domain

import (
	"context"
	"errors"
)

// Document is a single unit of text stored for retrieval.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
	// Index is the insertion position in the store. It is stable for the
	// lifetime of the store and correlates the document with its vector.
	Index int
}

// RetrievalResult is a matching document with its cosine similarity to the query.
type RetrievalResult struct {
	Document   Document
	Similarity float64
}

// GenerationResult is a generated answer plus the documents that grounded it.
type GenerationResult struct {
	Response  string
	Documents []RetrievalResult
}

// Embedder converts text into fixed-dimension dense vectors.
// Encoding a batch must be equivalent to encoding each text independently,
// and the same input must always produce the same vector for a fixed model.
type Embedder interface {
	Name() string
	// Encode returns one vector per input text. An empty input returns an
	// empty matrix without contacting the underlying provider.
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension reports the vector width, or 0 if not yet known.
	Dimension() int
}

// GenerationParams control the sampling policy of a completion call.
type GenerationParams struct {
	MaxTokens     int
	Temperature   float64
	TopP          float64
	TopK          int
	RepeatPenalty float64
	Stop          []string
}

// Generator runs text completion against a loaded language model.
type Generator interface {
	Complete(ctx context.Context, prompt string, params GenerationParams) (string, error)
	// ContextWindow reports the model's context size in tokens.
	ContextWindow() int
}

// DocumentStore holds embedded documents and answers similarity queries.
type DocumentStore interface {
	// AddDocuments embeds and appends the given texts. metadata is either nil
	// or the same length as texts. Appends are all-or-nothing: a failed
	// embedding call leaves the store unchanged.
	AddDocuments(ctx context.Context, texts []string, metadata []map[string]any) (int, error)
	// Search returns up to topK documents with similarity >= minSimilarity,
	// ordered by descending similarity. An empty store yields no results and
	// no embedding call.
	Search(ctx context.Context, query string, topK int, minSimilarity float64) ([]RetrievalResult, error)
	Len() int
}

// Transcriber converts one audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (Transcription, error)
}

// Transcription is the result of transcribing a single audio file.
type Transcription struct {
	Filename string  `json:"filename"`
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

var (
	// ErrInvalidQuery is returned when a query is empty or whitespace-only.
	ErrInvalidQuery = errors.New("query must not be empty")
	// ErrMetadataMismatch is returned when metadata and texts differ in length.
	ErrMetadataMismatch = errors.New("metadata length does not match texts length")
	// ErrContextOverflow is returned when a prompt cannot fit the model's
	// context window even with all retrieved context removed.
	ErrContextOverflow = errors.New("prompt exceeds model context window")
)
