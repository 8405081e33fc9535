// Package textclean normalises raw paragraph text extracted from legal sources
// before it is segmented.
package textclean

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	urlPattern      = regexp.MustCompile(`https?://\S+|www\.\S+`)
	htmlTagPattern  = regexp.MustCompile(`<[^>]*>`)
	disallowed      = regexp.MustCompile(`[^\x{0E80}-\x{0EFF}a-zA-Z0-9,.!?():;%/"'\x{201C}\x{201D}\x{2018}\x{2019}\s-]`)
	whitespace      = regexp.MustCompile(`\s+`)
	pageArtifact    = regexp.MustCompile(`(?i)page\s+\d+\s+of\s+\d+`)
	listNumberStart = regexp.MustCompile(`^\d+\.\s*`)
)

// Clean returns paragraph in NFC with links, markup, page footers and symbols
// outside Lao, Latin, digits and basic punctuation removed. Percent signs,
// slashes and quotes stay because rates and decree numbers use them. Runs of
// whitespace collapse to one space.
func Clean(paragraph string) string {
	text := norm.NFC.String(paragraph)
	text = strings.NewReplacer("\u200b", "", "\u00a0", " ").Replace(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = disallowed.ReplaceAllString(text, "")
	text = pageArtifact.ReplaceAllString(text, "")
	text = whitespace.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	return listNumberStart.ReplaceAllString(text, "")
}

// CleanAll cleans every paragraph and drops the ones left empty.
func CleanAll(paragraphs []string) []string {
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if c := Clean(p); c != "" {
			out = append(out, c)
		}
	}
	return out
}
