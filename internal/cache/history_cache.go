package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"laolaw-rag/internal/model"
)

const historyGenerationKey = "qa:history:gen"

// HistoryCache caches history pages in Redis. Pages are keyed by a generation
// counter, so bumping the counter invalidates every cached page at once.
type HistoryCache struct {
	client     *redisv9.Client
	historyTTL time.Duration
}

func NewHistoryCache(client *redisv9.Client, historyTTL time.Duration) *HistoryCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	return &HistoryCache{
		client:     client,
		historyTTL: historyTTL,
	}
}

func (c *HistoryCache) GetPage(ctx context.Context, page, pageSize int) (*model.HistoryPage, bool, error) {
	key, err := c.pageKey(ctx, page, pageSize)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.client.Get(ctx, key).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get history page failed: %w", err)
	}

	var cached model.HistoryPage
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return &cached, true, nil
}

func (c *HistoryCache) SetPage(ctx context.Context, hp *model.HistoryPage) error {
	key, err := c.pageKey(ctx, hp.Page, hp.PageSize)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(hp)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set history page failed: %w", err)
	}
	return nil
}

// Invalidate drops every cached page.
func (c *HistoryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, historyGenerationKey).Err(); err != nil {
		return fmt.Errorf("redis bump history generation failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) pageKey(ctx context.Context, page, pageSize int) (string, error) {
	gen, err := c.client.Get(ctx, historyGenerationKey).Int64()
	if err != nil && err != redisv9.Nil {
		return "", fmt.Errorf("redis get history generation failed: %w", err)
	}
	return fmt.Sprintf("qa:history:%d:%d:%d", gen, page, pageSize), nil
}
