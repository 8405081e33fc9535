package rag

import (
	"regexp"
	"strings"

	"laolaw-rag/internal/model"
)

const (
	// TitlePreamble labels text that appears before the first article heading.
	TitlePreamble = "Preamble"
	// TitleGeneral labels the single unit of a document without any article heading.
	TitleGeneral = "General"

	laoArticle = "ມາດຕາ"
)

// articleMarker matches a paragraph that opens with an article heading:
// "ມາດຕາ 12", "ມາດ ຕາ ໑໒", "Article 2: ...". Zero-width and no-break spaces
// are common in Lao sources and count as whitespace.
var articleMarker = regexp.MustCompile(
	`(?s)^[\s\x{00A0}\x{200B}]*(ມາດ[\s\x{00A0}\x{200B}]*ຕາ|(?i:article))[\s\x{00A0}\x{200B}]*([0-9໐-໙]+)(.*)$`,
)

var headingSeparators = regexp.MustCompile(`^[\s\x{00A0}\x{200B}:.)\-–—]+`)

// Segmentation is the result of splitting one document.
// Degraded is set when no article heading was found and the whole document
// became a single General unit.
type Segmentation struct {
	Units    []model.Unit
	Degraded bool
}

// Segment splits a document into article units. It never fails: a document
// without headings yields one General unit.
func Segment(doc model.Document) Segmentation {
	var (
		units     []model.Unit
		title     string
		body      []string
		sawMarker bool
		inArticle bool
	)

	flush := func() {
		text := strings.Join(body, "\n")
		switch {
		case inArticle:
			units = append(units, model.Unit{Source: doc.ID, Title: title, Body: text})
		case strings.TrimSpace(text) != "":
			units = append(units, model.Unit{Source: doc.ID, Title: TitlePreamble, Body: text})
		}
		body = nil
	}

	for _, raw := range doc.Paragraphs {
		paragraph := strings.TrimSpace(raw)
		if paragraph == "" {
			continue
		}
		heading, rest, ok := matchHeading(paragraph)
		if !ok {
			body = append(body, paragraph)
			continue
		}
		flush()
		sawMarker = true
		inArticle = true
		title = heading
		if rest != "" {
			body = append(body, rest)
		}
	}

	if !sawMarker {
		return Segmentation{
			Units: []model.Unit{{
				Source: doc.ID,
				Title:  TitleGeneral,
				Body:   strings.Join(body, "\n"),
			}},
			Degraded: true,
		}
	}
	flush()
	return Segmentation{Units: units}
}

// matchHeading reports whether paragraph opens with an article heading and
// returns the normalised heading and the text that follows it.
func matchHeading(paragraph string) (heading, rest string, ok bool) {
	m := articleMarker.FindStringSubmatch(paragraph)
	if m == nil {
		return "", "", false
	}
	marker := "Article"
	if strings.HasPrefix(m[1], "ມາດ") {
		marker = laoArticle
	}
	rest = headingSeparators.ReplaceAllString(m[3], "")
	return marker + " " + m[2], strings.TrimSpace(rest), true
}
