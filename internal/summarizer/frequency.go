package summarizer

import (
	"regexp"
	"sort"
	"strings"
)

// Digest produces a short extractive overview of ingested text by ranking
// sentences on normalized token frequency. Used by the interactive surfaces
// to show what a freshly loaded corpus is about.
type Digest struct {
	tokenPattern    *regexp.Regexp
	sentencePattern *regexp.Regexp
	stopwords       map[string]struct{}
}

// NewDigest creates a frequency-based sentence ranker.
func NewDigest() *Digest {
	return &Digest{
		tokenPattern:    regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		sentencePattern: regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		stopwords:       stopwordSet(),
	}
}

// Summarize returns up to maxSentences of the highest-scoring sentences,
// kept in their original order.
func (d *Digest) Summarize(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	sentences := d.sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	if len(sentences) <= maxSentences {
		return strings.TrimSpace(strings.Join(sentences, " "))
	}

	freq := map[string]float64{}
	maxFreq := 0.0
	for _, sentence := range sentences {
		for _, token := range d.tokens(sentence) {
			freq[token]++
			if freq[token] > maxFreq {
				maxFreq = freq[token]
			}
		}
	}
	for token := range freq {
		freq[token] /= maxFreq
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, sentence := range sentences {
		total := 0.0
		for _, token := range d.tokens(sentence) {
			total += freq[token]
		}
		ranked[i] = scored{index: i, score: total}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	picked := ranked[:maxSentences]
	sort.Slice(picked, func(i, j int) bool { return picked[i].index < picked[j].index })

	parts := make([]string, len(picked))
	for i, s := range picked {
		parts[i] = strings.TrimSpace(sentences[s.index])
	}
	return strings.Join(parts, " ")
}

func (d *Digest) tokens(text string) []string {
	raw := d.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := d.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func stopwordSet() map[string]struct{} {
	words := strings.Fields("a an the and or but if then else for to of in on at by with as is are was were be been it this that these those from so such into about not no")
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
