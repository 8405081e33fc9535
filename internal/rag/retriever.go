package rag

import (
	"context"

	"laolaw-rag/internal/vectorstore"
)

const DefaultTopK = 5

// Retriever fetches the context passages for a question. k is fixed at
// construction so callers cannot inflate prompt size.
type Retriever struct {
	index    *Index
	k        int
	minScore float32
}

// NewRetriever returns a retriever over index. Matches scoring at or below
// minScore are dropped; the index order is otherwise kept as is.
func NewRetriever(index *Index, k int, minScore float32) *Retriever {
	if k <= 0 {
		k = DefaultTopK
	}
	return &Retriever{index: index, k: k, minScore: minScore}
}

func (r *Retriever) Retrieve(ctx context.Context, question string) ([]vectorstore.Match, error) {
	matches, err := r.index.Query(ctx, question, r.k)
	if err != nil {
		return nil, err
	}
	kept := matches[:0]
	for _, m := range matches {
		if m.Score > r.minScore {
			kept = append(kept, m)
		}
	}
	return kept, nil
}
