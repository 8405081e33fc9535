// Package vectorstore holds embedded chunks and answers nearest-neighbour queries.
// Every implementation ranks by cosine similarity.
package vectorstore

import (
	"context"
	"errors"
	"math"
	"sort"

	"laolaw-rag/internal/model"
)

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Record is a chunk paired with its embedding.
type Record struct {
	ID     string      `json:"id"`
	Chunk  model.Chunk `json:"chunk"`
	Vector []float32   `json:"vector"`
}

// Match is a record with its similarity to the query vector.
type Match struct {
	Record Record  `json:"record"`
	Score  float32 `json:"score"`
}

type Stats struct {
	Count     int `json:"count"`
	Dimension int `json:"dimension"`
}

// Store persists records and supports similarity search.
// Replace swaps the whole content at once: readers see either the old or the new set.
type Store interface {
	Replace(ctx context.Context, records []Record) error
	Search(ctx context.Context, vector []float32, k int) ([]Match, error)
	Stats(ctx context.Context) (Stats, error)
}

// Validate checks that all records share one non-zero dimension and returns it.
func Validate(records []Record) (int, error) {
	dim := 0
	for i := range records {
		n := len(records[i].Vector)
		if n == 0 {
			return 0, ErrDimensionMismatch
		}
		if dim == 0 {
			dim = n
			continue
		}
		if n != dim {
			return 0, ErrDimensionMismatch
		}
	}
	return dim, nil
}

// Cosine returns the cosine similarity of a and b, or 0 when they are not comparable.
func Cosine(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// TopK scores every record against vector and returns the k best, best first.
// Ties keep the stored order so results are reproducible.
func TopK(records []Record, vector []float32, k int) []Match {
	if k <= 0 || len(records) == 0 {
		return nil
	}
	scored := make([]Match, len(records))
	for i := range records {
		scored[i] = Match{Record: records[i], Score: Cosine(vector, records[i].Vector)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}
