package rag

import (
	"fmt"
	"unicode"

	"laolaw-rag/internal/model"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// Chunker splits unit bodies into windows of at most Size runes where
// consecutive windows share Overlap runes. Output depends only on the input
// text and the two parameters.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", ErrConfiguration, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Split cuts the unit body into chunks carrying the unit's source and title.
// Text is not trimmed: the first chunk followed by every later chunk minus its
// Overlap leading runes reproduces the body exactly.
func (c *Chunker) Split(unit model.Unit) []model.Chunk {
	runes := []rune(unit.Body)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []model.Chunk
	start, overlap := 0, 0
	for {
		end := n
		if n-start > c.size {
			end = cutPoint(runes, start+c.overlap+1, start+c.size)
		}
		chunks = append(chunks, model.Chunk{
			Source:   unit.Source,
			Title:    unit.Title,
			Position: len(chunks),
			Overlap:  overlap,
			Text:     string(runes[start:end]),
		})
		if end == n {
			return chunks
		}
		start = end - c.overlap
		overlap = c.overlap
	}
}

// boundaries are tried in order; each reports whether a chunk may end right
// before runes[p].
var boundaries = []func(r []rune, p int) bool{
	func(r []rune, p int) bool { return p >= 2 && r[p-1] == '\n' && r[p-2] == '\n' },
	func(r []rune, p int) bool { return r[p-1] == '\n' },
	func(r []rune, p int) bool {
		return isSentenceEnd(r[p-1]) || (p >= 2 && unicode.IsSpace(r[p-1]) && isSentenceEnd(r[p-2]))
	},
	func(r []rune, p int) bool { return unicode.IsSpace(r[p-1]) },
}

// cutPoint returns the end of a chunk in [lo, hi], preferring the last
// paragraph break, then line break, sentence end and space. It falls back to a
// hard cut at hi.
func cutPoint(runes []rune, lo, hi int) int {
	for _, ok := range boundaries {
		for p := hi; p >= lo; p-- {
			if ok(runes, p) {
				return p
			}
		}
	}
	return hi
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', ';':
		return true
	}
	return false
}
