package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"localrag/internal/domain"
)

// Storage is an in-memory document store using brute-force cosine similarity.
// Documents and vectors are parallel slices that grow in lockstep and are
// never reordered or compacted.
type Storage struct {
	mu        sync.RWMutex
	embedder  domain.Embedder
	documents []domain.Document
	vectors   [][]float32
}

// NewStorage creates an empty store bound to the given embedder.
func NewStorage(embedder domain.Embedder) *Storage {
	return &Storage{embedder: embedder}
}

// AddDocuments embeds texts and appends them with their metadata.
// The whole batch is embedded before anything is appended, so a failing
// embedding call never leaves a partial append behind.
func (s *Storage) AddDocuments(ctx context.Context, texts []string, metadata []map[string]any) (int, error) {
	if metadata != nil && len(metadata) != len(texts) {
		return 0, fmt.Errorf("add documents: %w: %d metadata for %d texts",
			domain.ErrMetadataMismatch, len(metadata), len(texts))
	}
	if len(texts) == 0 {
		return 0, nil
	}

	vectors, err := s.embedder.Encode(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("add documents: embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("add documents: embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, text := range texts {
		meta := map[string]any{}
		if metadata != nil && metadata[i] != nil {
			meta = metadata[i]
		}
		s.documents = append(s.documents, domain.Document{
			ID:       uuid.NewString(),
			Text:     text,
			Metadata: meta,
			Index:    len(s.documents),
		})
	}
	s.vectors = append(s.vectors, vectors...)
	return len(texts), nil
}

// Search embeds the query once and ranks every stored document by cosine
// similarity. Results below minSimilarity are dropped, the rest are ordered
// by descending similarity (ties by insertion order) and capped at topK.
func (s *Storage) Search(ctx context.Context, query string, topK int, minSimilarity float64) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		topK = 3
	}
	if s.Len() == 0 {
		return nil, nil
	}

	queryVectors, err := s.embedder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}
	if len(queryVectors) != 1 {
		return nil, fmt.Errorf("search: embedder returned %d vectors for one query", len(queryVectors))
	}
	queryVec := queryVectors[0]

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.RetrievalResult, 0, len(s.documents))
	for i := range s.documents {
		sim := CosineSimilarity(queryVec, s.vectors[i])
		if sim >= minSimilarity {
			results = append(results, domain.RetrievalResult{Document: s.documents[i], Similarity: sim})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Len reports the number of stored documents.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// CosineSimilarity computes the normalized dot product of two vectors.
// A zero-norm vector yields 0, never NaN. Mismatched lengths compare only
// the overlapping prefix.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		na += va * va
		nb += vb * vb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
