package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Embedder is the embedding client being cached.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingCache keeps query embeddings in process memory so repeated
// questions skip the embedding service. Batch calls are not cached.
type EmbeddingCache struct {
	next  Embedder
	cache *gocache.Cache
	ttl   time.Duration
}

func NewEmbeddingCache(next Embedder, ttl time.Duration) *EmbeddingCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &EmbeddingCache{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (c *EmbeddingCache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := embeddingKey(text)
	if v, ok := c.cache.Get(key); ok {
		return v.([]float32), nil
	}
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, vec, c.ttl)
	return vec, nil
}

func (c *EmbeddingCache) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return c.next.EmbedBatch(ctx, texts)
}

// Flush empties the cache; called after an index rebuild since a new build may
// use a different embedding model.
func (c *EmbeddingCache) Flush() {
	c.cache.Flush()
}

func embeddingKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
