package docproc

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// ProcessDOCX extracts paragraph text from word/document.xml inside the
// docx container, one unit per non-empty paragraph.
func (p *Processor) ProcessDOCX(path string) ([]string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("docproc: open DOCX %s: %w", path, err)
	}
	defer archive.Close()

	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("docproc: read DOCX %s: %w", path, err)
		}
		defer rc.Close()
		return extractDOCXParagraphs(rc)
	}
	return nil, fmt.Errorf("docproc: %s has no word/document.xml", path)
}

// extractDOCXParagraphs walks the WordprocessingML token stream, collecting
// text runs (w:t) and closing a paragraph at each w:p end element.
func extractDOCXParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)
	var (
		units   []string
		current strings.Builder
		inText  bool
	)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("docproc: parse DOCX XML: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(current.String()); text != "" {
					units = append(units, text)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if text := strings.TrimSpace(current.String()); text != "" {
		units = append(units, text)
	}
	return units, nil
}
