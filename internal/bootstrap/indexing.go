package bootstrap

import (
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"laolaw-rag/internal/ai"
	"laolaw-rag/internal/cache"
	"laolaw-rag/internal/config"
	"laolaw-rag/internal/loader"
	"laolaw-rag/internal/rag"
	"laolaw-rag/internal/repository"
	"laolaw-rag/internal/vectorstore"
	"laolaw-rag/internal/vectorstore/file"
)

// Indexing is the part of the application needed to build and query the
// index. The ingest command uses it without the server dependencies.
type Indexing struct {
	Store      vectorstore.Store
	Index      *rag.Index
	Builder    *rag.Builder
	QueryCache *cache.EmbeddingCache
}

// NewIndexing wires the embedding client, vector store and builder. db is only
// required for the mysql index backend.
func NewIndexing(cfg *config.Config, db *gorm.DB) (*Indexing, error) {
	var store vectorstore.Store
	switch cfg.Index.Backend {
	case config.IndexBackendMySQL:
		if db == nil {
			return nil, fmt.Errorf("%w: mysql index backend needs a database", rag.ErrConfiguration)
		}
		store = repository.NewIndexRecordRepository(db)
	default:
		fs, err := file.Open(cfg.Index.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: open index: %w", rag.ErrConfiguration, err)
		}
		store = fs
	}

	embedder := ai.NewEmbeddingClient(ai.EmbeddingConfig{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	}, &http.Client{Timeout: 60 * time.Second})
	queryCache := cache.NewEmbeddingCache(embedder, time.Duration(cfg.Embedding.CacheTTLSeconds)*time.Second)

	index := rag.NewIndex(queryCache, store,
		rag.WithBatchSize(cfg.Embedding.BatchSize),
		rag.WithDimension(cfg.Embedding.Dimension),
		rag.WithRateLimit(cfg.Embedding.RequestsPerSecond, 1),
	)
	chunker, err := rag.NewChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	var loaderOpts []loader.Option
	if !cfg.RAG.CleanText {
		loaderOpts = append(loaderOpts, loader.WithoutCleaning())
	}

	return &Indexing{
		Store:      store,
		Index:      index,
		Builder:    rag.NewBuilder(loader.NewRegistry(loaderOpts...), chunker, index),
		QueryCache: queryCache,
	}, nil
}
