package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"localrag/internal/domain"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 4096), 1024},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%d chars) = %d, want %d", len(tt.text), got, tt.want)
		}
	}
}

func TestCompleteRejectsOversizedPrompt(t *testing.T) {
	engine, err := NewEngine(Config{Model: "test-model", ContextWindow: 64})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	// ~256 estimated tokens against a 64-token window; the guard fires
	// before any network call is attempted.
	prompt := strings.Repeat("a", 1024)
	_, err = engine.Complete(context.Background(), prompt, domain.GenerationParams{})
	if !errors.Is(err, domain.ErrContextOverflow) {
		t.Fatalf("err = %v, want ErrContextOverflow", err)
	}
}

func TestOptionsMapping(t *testing.T) {
	engine, err := NewEngine(Config{Model: "test-model", ContextWindow: 4096, Threads: 6})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	opts := engine.options(domain.GenerationParams{
		MaxTokens:     256,
		Temperature:   0.3,
		TopP:          0.8,
		TopK:          20,
		RepeatPenalty: 1.2,
		Stop:          []string{"</s>"},
	})

	want := map[string]any{
		"num_ctx":        4096,
		"num_predict":    256,
		"temperature":    0.3,
		"top_p":          0.8,
		"top_k":          20,
		"repeat_penalty": 1.2,
		"num_thread":     6,
	}
	for key, val := range want {
		if got := opts[key]; got != val {
			t.Errorf("options[%q] = %v, want %v", key, got, val)
		}
	}
	stop, ok := opts["stop"].([]string)
	if !ok || len(stop) != 1 || stop[0] != "</s>" {
		t.Errorf("options[stop] = %v", opts["stop"])
	}
}

func TestOptionsOmitsStopAndThreadsWhenUnset(t *testing.T) {
	engine, err := NewEngine(Config{Model: "test-model"})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	opts := engine.options(domain.GenerationParams{})
	if _, ok := opts["stop"]; ok {
		t.Error("stop present for empty stop set")
	}
	if _, ok := opts["num_thread"]; ok {
		t.Error("num_thread present for unset thread count")
	}
}
