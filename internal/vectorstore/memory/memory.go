package memory

import (
	"context"
	"sync/atomic"

	"laolaw-rag/internal/vectorstore"
)

type snapshot struct {
	records   []vectorstore.Record
	dimension int
}

// Store is an in-process vector store using brute-force cosine similarity.
// Replace publishes a new snapshot with a single pointer swap.
type Store struct {
	current atomic.Pointer[snapshot]
}

func NewStore() *Store {
	s := &Store{}
	s.current.Store(&snapshot{})
	return s
}

func (s *Store) Replace(_ context.Context, records []vectorstore.Record) error {
	dim, err := vectorstore.Validate(records)
	if err != nil {
		return err
	}
	copied := make([]vectorstore.Record, len(records))
	copy(copied, records)
	s.current.Store(&snapshot{records: copied, dimension: dim})
	return nil
}

func (s *Store) Search(_ context.Context, vector []float32, k int) ([]vectorstore.Match, error) {
	snap := s.current.Load()
	if len(snap.records) == 0 {
		return nil, nil
	}
	if len(vector) != snap.dimension {
		return nil, vectorstore.ErrDimensionMismatch
	}
	return vectorstore.TopK(snap.records, vector, k), nil
}

func (s *Store) Stats(_ context.Context) (vectorstore.Stats, error) {
	snap := s.current.Load()
	return vectorstore.Stats{Count: len(snap.records), Dimension: snap.dimension}, nil
}

// Records returns the current snapshot. Callers must not modify it.
func (s *Store) Records() []vectorstore.Record {
	return s.current.Load().records
}
