package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNoDocumentPart = errors.New("word/document.xml not found")

// ParseDOCX returns one paragraph per w:p element of the main document part,
// in document order, table cells included.
func ParseDOCX(content []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive failed: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open document part failed: %w", err)
		}
		defer rc.Close()
		return parseDocumentXML(rc)
	}
	return nil, errNoDocumentPart
}

func parseDocumentXML(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		inPara     bool
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document xml failed: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				inPara = true
				current.Reset()
			case "t":
				inText = true
			case "tab":
				if inPara {
					current.WriteByte('\t')
				}
			case "br":
				if inPara {
					current.WriteByte(' ')
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "p":
				if inPara {
					paragraphs = append(paragraphs, current.String())
				}
				inPara = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inPara && inText {
				current.Write(el)
			}
		}
	}
	return paragraphs, nil
}
