package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laolaw-rag/internal/model"
	"laolaw-rag/internal/vectorstore"
	"laolaw-rag/internal/vectorstore/memory"
)

func chunk(source, title, text string) model.Chunk {
	return model.Chunk{Source: source, Title: title, Text: text}
}

func TestIndex_BuildAndQuery(t *testing.T) {
	ctx := context.Background()
	emb := newVocabEmbedder()
	ix := NewIndex(emb, memory.NewStore())

	stats, err := ix.Build(ctx, []model.Chunk{
		chunk("tax.txt", "Article 1", "income tax rate for salaries"),
		chunk("tax.txt", "Article 2", "marriage consent of both parties"),
		chunk("tax.txt", "Article 3", "land use rights and land titles"),
	})
	require.NoError(t, err)
	assert.Equal(t, BuildStats{Records: 3, Dimension: testDimension}, stats)

	matches, err := ix.Query(ctx, "who must consent to a marriage", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Article 2", matches[0].Record.Chunk.Title)
	assert.Equal(t, RecordID(matches[0].Record.Chunk), matches[0].Record.ID)
}

func TestIndex_QueryEmptyIndexSkipsEmbedder(t *testing.T) {
	emb := newVocabEmbedder()
	ix := NewIndex(emb, memory.NewStore())

	matches, err := ix.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)

	embedCalls, _ := emb.calls()
	assert.Zero(t, embedCalls)
}

func TestIndex_BatchesEmbeddingRequests(t *testing.T) {
	emb := newVocabEmbedder()
	ix := NewIndex(emb, memory.NewStore(), WithBatchSize(2), WithRateLimit(1000, 5))

	chunks := make([]model.Chunk, 5)
	for i := range chunks {
		chunks[i] = chunk("d", fmt.Sprintf("Article %d", i), fmt.Sprintf("text %d", i))
	}
	_, err := ix.Build(context.Background(), chunks)
	require.NoError(t, err)

	_, batchCalls := emb.calls()
	assert.Equal(t, 3, batchCalls)
}

func TestIndex_BuildFailureKeepsPreviousIndex(t *testing.T) {
	ctx := context.Background()
	emb := newVocabEmbedder()
	store := memory.NewStore()
	ix := NewIndex(emb, store)

	_, err := ix.Build(ctx, []model.Chunk{chunk("old.txt", "Article 1", "old content")})
	require.NoError(t, err)

	emb.batchErr = errors.New("embedding batch request failed: connection refused")
	_, err = ix.Build(ctx, []model.Chunk{chunk("new.txt", "Article 1", "new content")})
	assert.ErrorIs(t, err, ErrIndexBuild)

	require.Len(t, store.Records(), 1)
	assert.Equal(t, "old.txt", store.Records()[0].Chunk.Source)
}

type shortEmbedder struct{ *vocabEmbedder }

func (e shortEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out, err := e.vocabEmbedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	out[len(out)-1] = out[len(out)-1][:3]
	return out, nil
}

func TestIndex_BuildDimensionMismatch(t *testing.T) {
	store := memory.NewStore()
	ix := NewIndex(shortEmbedder{newVocabEmbedder()}, store)

	_, err := ix.Build(context.Background(), []model.Chunk{
		chunk("a", "Article 1", "one"),
		chunk("a", "Article 2", "two"),
	})
	assert.ErrorIs(t, err, ErrIndexBuild)
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
	assert.Empty(t, store.Records())
}

func TestIndex_BuildExpectedDimension(t *testing.T) {
	ix := NewIndex(newVocabEmbedder(), memory.NewStore(), WithDimension(1024))
	_, err := ix.Build(context.Background(), []model.Chunk{chunk("a", "b", "c")})
	assert.ErrorIs(t, err, ErrIndexBuild)
}

type countingEmbedder struct{ *vocabEmbedder }

func (e countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out, err := e.vocabEmbedder.EmbedBatch(ctx, texts)
	return out[:len(out)-1], err
}

func TestIndex_BuildCountMismatch(t *testing.T) {
	ix := NewIndex(countingEmbedder{newVocabEmbedder()}, memory.NewStore())
	_, err := ix.Build(context.Background(), []model.Chunk{chunk("a", "b", "c"), chunk("a", "b", "d")})
	assert.ErrorIs(t, err, ErrIndexBuild)
}

func TestIndex_QueryEmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	emb := newVocabEmbedder()
	ix := NewIndex(emb, memory.NewStore())
	_, err := ix.Build(ctx, []model.Chunk{chunk("a", "b", "c")})
	require.NoError(t, err)

	emb.embedErr = errors.New("embedding request failed: timeout")
	_, err = ix.Query(ctx, "c", 5)
	assert.ErrorIs(t, err, ErrRetrieval)
}

func TestIndex_EmptyBuildClearsIndex(t *testing.T) {
	ctx := context.Background()
	ix := NewIndex(newVocabEmbedder(), memory.NewStore())
	_, err := ix.Build(ctx, []model.Chunk{chunk("a", "b", "c")})
	require.NoError(t, err)

	stats, err := ix.Build(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, BuildStats{}, stats)

	s, err := ix.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, s.Count)
}

func TestRecordID_Stable(t *testing.T) {
	c := model.Chunk{Source: "a.docx", Title: "ມາດຕາ 1", Position: 2, Text: "ເນື້ອໃນ"}
	assert.Equal(t, RecordID(c), RecordID(c))

	other := c
	other.Position = 3
	assert.NotEqual(t, RecordID(c), RecordID(other))
}

func TestRetriever_FewerChunksThanK(t *testing.T) {
	ctx := context.Background()
	ix := NewIndex(newVocabEmbedder(), memory.NewStore())
	_, err := ix.Build(ctx, []model.Chunk{
		chunk("a.txt", "Article 1", "labour contract duration"),
		chunk("a.txt", "Article 2", "labour contract termination"),
		chunk("a.txt", "Article 3", "labour contract wages"),
	})
	require.NoError(t, err)

	r := NewRetriever(ix, 5, 0)
	matches, err := r.Retrieve(ctx, "labour contract")
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestRetriever_DropsUnrelatedMatches(t *testing.T) {
	ctx := context.Background()
	ix := NewIndex(newVocabEmbedder(), memory.NewStore())
	_, err := ix.Build(ctx, []model.Chunk{
		chunk("a.txt", "Article 1", "forest protection"),
		chunk("a.txt", "Article 2", "vehicle registration"),
	})
	require.NoError(t, err)

	matches, err := NewRetriever(ix, 0, 0).Retrieve(ctx, "vehicle registration fees")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Article 2", matches[0].Record.Chunk.Title)
}
