package summarizer

import (
	"strings"
	"testing"
)

func TestSummarizeShortTextReturnedWhole(t *testing.T) {
	d := NewDigest()
	got := d.Summarize("Just one sentence here.", 3)
	if got != "Just one sentence here." {
		t.Errorf("got %q", got)
	}
}

func TestSummarizePicksFrequentTopicSentences(t *testing.T) {
	d := NewDigest()
	text := "Gophers build servers. Gophers love servers and gophers write servers daily. " +
		"Unrelated digression about weather. Another digression entirely. " +
		"Servers run everywhere gophers deploy them."
	got := d.Summarize(text, 2)

	sentences := strings.Count(got, ".")
	if sentences > 2 {
		t.Errorf("summary has %d sentences, want at most 2: %q", sentences, got)
	}
	if !strings.Contains(strings.ToLower(got), "gophers") {
		t.Errorf("summary missed the dominant topic: %q", got)
	}
}

func TestSummarizeKeepsOriginalOrder(t *testing.T) {
	d := NewDigest()
	text := "Alpha topic alpha alpha. Filler sentence one here. Beta topic alpha alpha. Filler two here again."
	got := d.Summarize(text, 2)
	ai := strings.Index(got, "Alpha")
	bi := strings.Index(got, "Beta")
	if ai == -1 || bi == -1 {
		t.Fatalf("expected the two topic sentences, got %q", got)
	}
	if ai > bi {
		t.Errorf("sentences reordered: %q", got)
	}
}

func TestSummarizeEmptyText(t *testing.T) {
	d := NewDigest()
	if got := NewDigest().Summarize("", 3); got != "" {
		t.Errorf("got %q for empty input", got)
	}
	if got := d.Summarize("   ", 3); got != "" {
		t.Errorf("got %q for blank input", got)
	}
}
