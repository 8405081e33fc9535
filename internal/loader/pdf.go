package loader

import (
	"bytes"
	"strings"

	"laolaw-rag/internal/pkg/pdfextract"
)

// ParsePDF extracts text page by page; every line of a page is a paragraph.
// A PDF without a text layer yields no paragraphs rather than an error.
func ParsePDF(content []byte) ([]string, error) {
	pages, err := pdfextract.ExtractPages(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	var paragraphs []string
	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			if strings.TrimSpace(line) != "" {
				paragraphs = append(paragraphs, line)
			}
		}
	}
	return paragraphs, nil
}
