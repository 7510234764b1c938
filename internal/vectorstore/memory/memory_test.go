package memory

import (
	"context"
	"errors"
	"math"
	"testing"

	"localrag/internal/domain"
)

// stubEmbedder returns fixed vectors for known texts and a deterministic
// fallback for everything else, counting Encode calls.
type stubEmbedder struct {
	calls   int
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Name() string   { return "stub" }
func (s *stubEmbedder) Dimension() int { return 3 }

func (s *stubEmbedder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := s.vectors[text]; ok {
			out[i] = v
			continue
		}
		var sum float32
		for _, r := range text {
			sum += float32(r)
		}
		out[i] = []float32{sum, float32(len(text)), 1}
	}
	return out, nil
}

func TestAddDocumentsGrowsInLockstep(t *testing.T) {
	emb := &stubEmbedder{}
	store := NewStorage(emb)

	added, err := store.AddDocuments(context.Background(), []string{"one", "two", "three"}, nil)
	if err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if added != 3 {
		t.Errorf("added = %d, want 3", added)
	}
	if store.Len() != 3 {
		t.Errorf("Len = %d, want 3", store.Len())
	}
	if len(store.vectors) != len(store.documents) {
		t.Errorf("vectors (%d) and documents (%d) out of lockstep", len(store.vectors), len(store.documents))
	}
	for i, doc := range store.documents {
		if doc.Index != i {
			t.Errorf("documents[%d].Index = %d", i, doc.Index)
		}
		if doc.ID == "" {
			t.Errorf("documents[%d] has no ID", i)
		}
	}
}

func TestAddDocumentsEmptyInputSkipsEmbedder(t *testing.T) {
	emb := &stubEmbedder{}
	store := NewStorage(emb)

	added, err := store.AddDocuments(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if added != 0 {
		t.Errorf("added = %d, want 0", added)
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times on empty input", emb.calls)
	}
}

func TestAddDocumentsMetadataMismatchFailsBeforeEmbedding(t *testing.T) {
	emb := &stubEmbedder{}
	store := NewStorage(emb)

	_, err := store.AddDocuments(context.Background(), nil, []map[string]any{{"a": 1}})
	if !errors.Is(err, domain.ErrMetadataMismatch) {
		t.Fatalf("err = %v, want ErrMetadataMismatch", err)
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times before validation", emb.calls)
	}

	_, err = store.AddDocuments(context.Background(), []string{"a", "b"}, []map[string]any{{"x": 1}})
	if !errors.Is(err, domain.ErrMetadataMismatch) {
		t.Fatalf("err = %v, want ErrMetadataMismatch", err)
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times before validation", emb.calls)
	}
}

func TestAddDocumentsFailedEmbedLeavesStoreUnchanged(t *testing.T) {
	emb := &stubEmbedder{err: errors.New("provider down")}
	store := NewStorage(emb)

	if _, err := store.AddDocuments(context.Background(), []string{"a"}, nil); err == nil {
		t.Fatal("expected error from failing embedder")
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d after failed add, want 0", store.Len())
	}
}

func TestAddDocumentsDefaultsMetadataToEmptyMap(t *testing.T) {
	store := NewStorage(&stubEmbedder{})
	if _, err := store.AddDocuments(context.Background(), []string{"a"}, nil); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if store.documents[0].Metadata == nil || len(store.documents[0].Metadata) != 0 {
		t.Errorf("Metadata = %v, want empty map", store.documents[0].Metadata)
	}
}

func TestSearchEmptyStoreSkipsEmbedder(t *testing.T) {
	emb := &stubEmbedder{}
	store := NewStorage(emb)

	results, err := store.Search(context.Background(), "anything", 5, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %v, want none", results)
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times on empty store", emb.calls)
	}
}

func TestSearchRankingAndThreshold(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"the cat sat on the mat":  {1, 0.2, 0},
		"dogs are loyal animals":  {0, 1, 0},
		"a feline on a rug":       {0.9, 0.1, 0},
		"quantum chromodynamics":  {0, 0, 1},
		"irrelevant query vector": {0, 0, 1},
	}}
	store := NewStorage(emb)
	texts := []string{"the cat sat on the mat", "dogs are loyal animals", "quantum chromodynamics"}
	if _, err := store.AddDocuments(context.Background(), texts, nil); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	t.Run("closest semantic match wins", func(t *testing.T) {
		results, err := store.Search(context.Background(), "a feline on a rug", 1, 0)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("got %d results, want 1", len(results))
		}
		if got := results[0].Document.Text; got != "the cat sat on the mat" {
			t.Errorf("top result = %q", got)
		}
	})

	t.Run("results sorted descending", func(t *testing.T) {
		results, err := store.Search(context.Background(), "a feline on a rug", 3, -1)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		for i := 1; i < len(results); i++ {
			if results[i].Similarity > results[i-1].Similarity {
				t.Errorf("results out of order at %d: %v > %v", i, results[i].Similarity, results[i-1].Similarity)
			}
		}
	})

	t.Run("top_k caps result count", func(t *testing.T) {
		results, err := store.Search(context.Background(), "a feline on a rug", 2, -1)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) > 2 {
			t.Errorf("got %d results, want at most 2", len(results))
		}
	})

	t.Run("threshold above one filters everything", func(t *testing.T) {
		results, err := store.Search(context.Background(), "a feline on a rug", 3, 1.01)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("got %d results above similarity 1.01", len(results))
		}
	})

	t.Run("fewer than top_k passing returns all of them", func(t *testing.T) {
		results, err := store.Search(context.Background(), "a feline on a rug", 10, 0.5)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) != 1 {
			t.Errorf("got %d results, want 1 above 0.5", len(results))
		}
	})
}

func TestAddingSameDocumentTwiceCreatesTwoEntries(t *testing.T) {
	store := NewStorage(&stubEmbedder{})
	text := "repeated entry"
	for i := 0; i < 2; i++ {
		if _, err := store.AddDocuments(context.Background(), []string{text}, nil); err != nil {
			t.Fatalf("AddDocuments: %v", err)
		}
	}
	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}
	if store.documents[0].ID == store.documents[1].ID {
		t.Error("duplicate documents share an ID")
	}
	for i := range store.vectors[0] {
		if store.vectors[0][i] != store.vectors[1][i] {
			t.Error("embedding of identical text differs between entries")
			break
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero left", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
		{"zero right", []float32{1, 2, 3}, []float32{0, 0, 0}, 0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.IsNaN(got) {
				t.Fatal("similarity is NaN")
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}
