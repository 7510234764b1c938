package docproc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Processor turns files of supported formats into retrieval-sized text units.
// Each returned string is one document for the store; chunking policy lives
// here, not in the store.
type Processor struct {
	jsonTextFields []string
	splitter       *regexp.Regexp
	// paragraphs longer than this are re-split into sentence groups
	maxParagraphLen   int
	sentencesPerChunk int
}

// NewProcessor creates a processor. jsonTextFields names the fields read
// from JSON documents.
func NewProcessor(jsonTextFields []string) *Processor {
	if len(jsonTextFields) == 0 {
		jsonTextFields = []string{"text", "content", "body"}
	}
	return &Processor{
		jsonTextFields:    jsonTextFields,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		maxParagraphLen:   2000,
		sentencesPerChunk: 5,
	}
}

// Process dispatches on the file extension.
func (p *Processor) Process(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return p.ProcessText(path)
	case ".pdf":
		return p.ProcessPDF(path)
	case ".docx":
		return p.ProcessDOCX(path)
	case ".json":
		return p.ProcessJSON(path)
	default:
		return nil, fmt.Errorf("docproc: unsupported file type: %s", path)
	}
}

// ProcessText reads a plain-text file and splits it into paragraphs on blank
// lines. Oversized paragraphs are re-split into sentence groups.
func (p *Processor) ProcessText(path string) ([]string, error) {
	text, err := readFileWithFallback(path)
	if err != nil {
		return nil, err
	}
	return p.splitParagraphs(text), nil
}

// ProcessJSON extracts the configured text fields from a JSON object or an
// array of objects, one unit per object.
func (p *Processor) ProcessJSON(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("docproc: parse JSON %s: %w", path, err)
	}

	var units []string
	appendUnit := func(obj map[string]any) {
		var parts []string
		for _, field := range p.jsonTextFields {
			if v, ok := obj[field]; ok {
				parts = append(parts, fmt.Sprint(v))
			}
		}
		if text := strings.TrimSpace(strings.Join(parts, " ")); text != "" {
			units = append(units, text)
		}
	}
	switch v := parsed.(type) {
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				appendUnit(obj)
			}
		}
	case map[string]any:
		appendUnit(v)
	default:
		return nil, fmt.Errorf("docproc: JSON %s is neither an object nor an array", path)
	}
	return units, nil
}

func (p *Processor) splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= p.maxParagraphLen {
			out = append(out, para)
			continue
		}
		out = append(out, p.splitSentences(para)...)
	}
	return out
}

// splitSentences groups sentences into chunks of sentencesPerChunk.
func (p *Processor) splitSentences(text string) []string {
	sentences := p.splitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	var chunks []string
	for i := 0; i < len(sentences); i += p.sentencesPerChunk {
		end := i + p.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
	}
	return chunks
}

// readFileWithFallback reads a file as UTF-8, falling back to Windows-1251
// and then Latin-1 when the content is not valid UTF-8.
func readFileWithFallback(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	for _, cm := range []*charmap.Charmap{charmap.Windows1251, charmap.ISO8859_1} {
		if decoded, err := cm.NewDecoder().Bytes(data); err == nil {
			return string(decoded), nil
		}
	}
	return "", fmt.Errorf("docproc: %s is not decodable text", path)
}
