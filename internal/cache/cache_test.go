package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laolaw-rag/internal/model"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redisv9.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestHistoryCache_RoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	c := NewHistoryCache(client, 30*time.Second)

	_, ok, err := c.GetPage(ctx, 1, 20)
	require.NoError(t, err)
	assert.False(t, ok)

	hp := &model.HistoryPage{
		Items:    []model.QAHistory{{ID: 1, Question: "q", Answer: "a", Citations: []string{"x (ມາດຕາ 1)"}}},
		Total:    1,
		Page:     1,
		PageSize: 20,
	}
	require.NoError(t, c.SetPage(ctx, hp))

	got, ok, err := c.GetPage(ctx, 1, 20)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, hp.Items[0].Citations, got.Items[0].Citations)
	assert.Equal(t, int64(1), got.Total)

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.GetPage(ctx, 1, 20)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetPage(ctx, hp))
	mr.FastForward(31 * time.Second)
	_, ok, err = c.GetPage(ctx, 1, 20)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHistoryCache_RedisDown(t *testing.T) {
	mr, client := newRedis(t)
	c := NewHistoryCache(client, 0)
	mr.Close()

	_, _, err := c.GetPage(context.Background(), 1, 20)
	assert.Error(t, err)
}

type countingEmbedder struct {
	calls int
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text))}, nil
}

func (e *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func TestEmbeddingCache(t *testing.T) {
	ctx := context.Background()
	next := &countingEmbedder{}
	c := NewEmbeddingCache(next, time.Minute)

	v1, err := c.Embed(ctx, "ກົດໝາຍ")
	require.NoError(t, err)
	v2, err := c.Embed(ctx, "ກົດໝາຍ")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, next.calls)

	_, err = c.EmbedBatch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	_, err = c.EmbedBatch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 3, next.calls)

	c.Flush()
	_, err = c.Embed(ctx, "ກົດໝາຍ")
	require.NoError(t, err)
	assert.Equal(t, 4, next.calls)
}

func TestEmbeddingCache_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	next := &countingEmbedder{err: errors.New("embedding request failed")}
	c := NewEmbeddingCache(next, time.Minute)

	_, err := c.Embed(ctx, "q")
	assert.Error(t, err)
	next.err = nil
	_, err = c.Embed(ctx, "q")
	assert.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}
