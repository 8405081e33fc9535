package rag

import (
	"fmt"
	"sort"

	"laolaw-rag/internal/model"
	"laolaw-rag/internal/vectorstore"
)

// CitationLabel renders the human-readable label of a chunk, e.g. "civil_code.docx (ມາດຕາ 12)".
func CitationLabel(chunk model.Chunk) string {
	return fmt.Sprintf("%s (%s)", chunk.Source, chunk.Title)
}

// AggregateCitations returns the distinct labels of the matches in lexicographic order.
// The result is never nil so it serialises as an empty JSON array.
func AggregateCitations(matches []vectorstore.Match) []string {
	seen := make(map[string]struct{}, len(matches))
	labels := make([]string, 0, len(matches))
	for _, m := range matches {
		label := CitationLabel(m.Record.Chunk)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
