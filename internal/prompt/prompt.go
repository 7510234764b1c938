package prompt

import (
	"strings"

	"localrag/internal/domain"
)

const (
	// separator joins context documents inside the prompt.
	separator = "\n\n"

	header = "Answer the question using the provided context. " +
		"If the context does not contain the information needed, say so explicitly."
)

// Assembler builds instruction prompts from a query and retrieved context.
// It is unaware of any context-window limit; fitting the prompt to the model
// is the caller's concern.
type Assembler struct{}

// NewAssembler creates a prompt assembler.
func NewAssembler() *Assembler { return &Assembler{} }

// Build assembles a prompt from the query and all context documents, in the
// order given (descending similarity when coming from search).
func (a *Assembler) Build(query string, context []domain.RetrievalResult) string {
	return a.BuildN(query, context, len(context))
}

// BuildN assembles a prompt using only the first n context documents.
// n is clamped to the available context.
func (a *Assembler) BuildN(query string, context []domain.RetrievalResult, n int) string {
	if n > len(context) {
		n = len(context)
	}
	if n < 0 {
		n = 0
	}
	texts := make([]string, 0, n)
	for _, r := range context[:n] {
		texts = append(texts, r.Document.Text)
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\nContext:\n")
	b.WriteString(strings.Join(texts, separator))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
