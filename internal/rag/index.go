package rag

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"laolaw-rag/internal/model"
	"laolaw-rag/internal/vectorstore"
)

const defaultEmbeddingBatchSize = 10 // many OpenAI-compatible providers cap batch input

var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("laolaw-rag/index-record"))

// Embedder turns text into fixed-dimension vectors. The same embedder must be
// used to build and to query an index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// BuildStats summarises a completed index build.
type BuildStats struct {
	Records   int `json:"records"`
	Dimension int `json:"dimension"`
}

// Index embeds chunks into a vector store and answers similarity queries.
type Index struct {
	embedder  Embedder
	store     vectorstore.Store
	batchSize int
	dimension int
	limiter   *rate.Limiter

	buildMu sync.Mutex
}

type IndexOption func(*Index)

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) IndexOption {
	return func(ix *Index) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithDimension pins the expected embedding dimension; 0 accepts whatever the
// service returns as long as it is consistent.
func WithDimension(dim int) IndexOption {
	return func(ix *Index) {
		if dim > 0 {
			ix.dimension = dim
		}
	}
}

// WithRateLimit throttles embedding requests during builds.
func WithRateLimit(requestsPerSecond float64, burst int) IndexOption {
	return func(ix *Index) {
		if requestsPerSecond <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		ix.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

func NewIndex(embedder Embedder, store vectorstore.Store, opts ...IndexOption) *Index {
	ix := &Index{
		embedder:  embedder,
		store:     store,
		batchSize: defaultEmbeddingBatchSize,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Build embeds every chunk and replaces the store content with the result.
// Nothing is written unless every chunk was embedded successfully.
func (ix *Index) Build(ctx context.Context, chunks []model.Chunk) (BuildStats, error) {
	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()

	records := make([]vectorstore.Record, 0, len(chunks))
	dim := ix.dimension
	for i := 0; i < len(chunks); i += ix.batchSize {
		end := i + ix.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		if ix.limiter != nil {
			if err := ix.limiter.Wait(ctx); err != nil {
				return BuildStats{}, fmt.Errorf("%w: %w", ErrIndexBuild, err)
			}
		}

		texts := make([]string, len(batch))
		for j := range batch {
			texts[j] = batch[j].Text
		}
		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return BuildStats{}, fmt.Errorf("%w: %w", ErrIndexBuild, err)
		}
		if len(vectors) != len(batch) {
			return BuildStats{}, fmt.Errorf("%w: embedding count mismatch: sent %d, got %d",
				ErrIndexBuild, len(batch), len(vectors))
		}

		for j, vec := range vectors {
			if dim == 0 {
				dim = len(vec)
			}
			if len(vec) == 0 || len(vec) != dim {
				return BuildStats{}, fmt.Errorf("%w: %w: expected %d, got %d",
					ErrIndexBuild, vectorstore.ErrDimensionMismatch, dim, len(vec))
			}
			records = append(records, vectorstore.Record{
				ID:     RecordID(batch[j]),
				Chunk:  batch[j],
				Vector: vec,
			})
		}
	}

	if err := ix.store.Replace(ctx, records); err != nil {
		return BuildStats{}, fmt.Errorf("%w: %w", ErrIndexBuild, err)
	}
	if len(records) == 0 {
		dim = 0
	}
	return BuildStats{Records: len(records), Dimension: dim}, nil
}

// Query returns the k stored chunks most similar to text, best first.
// An empty index yields an empty result without contacting the embedder.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]vectorstore.Match, error) {
	stats, err := ix.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	if stats.Count == 0 || k <= 0 {
		return []vectorstore.Match{}, nil
	}

	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	if len(vec) != stats.Dimension {
		return nil, fmt.Errorf("%w: %w: index has %d, query has %d",
			ErrRetrieval, vectorstore.ErrDimensionMismatch, stats.Dimension, len(vec))
	}

	matches, err := ix.store.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	if matches == nil {
		matches = []vectorstore.Match{}
	}
	return matches, nil
}

func (ix *Index) Stats(ctx context.Context) (vectorstore.Stats, error) {
	return ix.store.Stats(ctx)
}

// RecordID derives a stable identifier from a chunk's provenance and text, so
// rebuilding from the same sources yields the same ids.
func RecordID(c model.Chunk) string {
	key := c.Source + "\x00" + c.Title + "\x00" + strconv.Itoa(c.Position) + "\x00" + c.Text
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}
