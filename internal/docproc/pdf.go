package docproc

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ProcessPDF extracts text page by page, one unit per non-empty page.
func (p *Processor) ProcessPDF(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("docproc: open PDF %s: %w", path, err)
	}
	defer f.Close()

	var units []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("docproc: extract page %d of %s: %w", i, path, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			units = append(units, text)
		}
	}
	return units, nil
}
