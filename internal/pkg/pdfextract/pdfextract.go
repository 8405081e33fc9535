package pdfextract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// ExtractPages reads the PDF in r and returns the plain text of every page in
// order. Pages without extractable text (scans) come back as "".
func ExtractPages(r io.Reader) ([]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf failed: %w", err)
	}
	if len(b) == 0 {
		return nil, nil
	}
	pdfReader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open pdf failed: %w", err)
	}

	fonts := make(map[string]*pdf.Font)
	pages := make([]string, 0, pdfReader.NumPage())
	for i := 1; i <= pdfReader.NumPage(); i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("extract pdf page %d failed: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
