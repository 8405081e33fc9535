package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"laolaw-rag/internal/model"
	"laolaw-rag/internal/vectorstore"
)

const testDimension = 512

// vocabEmbedder is a bag-of-words embedder: every distinct lower-cased token
// gets its own dimension, so texts without shared tokens score exactly 0.
type vocabEmbedder struct {
	mu         sync.Mutex
	vocab      map[string]int
	embedCalls int
	batchCalls int
	embedErr   error
	batchErr   error
	dimension  int
}

func newVocabEmbedder() *vocabEmbedder {
	return &vocabEmbedder{vocab: map[string]int{}, dimension: testDimension}
}

func (e *vocabEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.dimension)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r)
	})
	for _, tok := range tokens {
		id, ok := e.vocab[tok]
		if !ok {
			id = len(e.vocab) % e.dimension
			e.vocab[tok] = id
		}
		vec[id]++
	}
	return vec
}

func (e *vocabEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.embedCalls++
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	return e.vector(text), nil
}

func (e *vocabEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batchCalls++
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *vocabEmbedder) calls() (embed, batch int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.embedCalls, e.batchCalls
}

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type memoryRecorder struct {
	mu      sync.Mutex
	answers []Answer
	err     error
}

func (r *memoryRecorder) Record(_ context.Context, a Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.answers = append(r.answers, a)
	return nil
}

func (r *memoryRecorder) recorded() []Answer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Answer(nil), r.answers...)
}

// textLoader loads .txt files with one paragraph per line.
type textLoader struct{}

var errUnsupported = errors.New("unsupported format")

func (textLoader) Supports(path string) bool {
	return filepath.Ext(path) == ".txt"
}

func (l textLoader) Load(path string) (model.Document, error) {
	if !l.Supports(path) {
		return model.Document{}, fmt.Errorf("%w: %s", errUnsupported, filepath.Ext(path))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, err
	}
	return model.Document{
		ID:         filepath.Base(path),
		Format:     "txt",
		Paragraphs: strings.Split(string(raw), "\n"),
	}, nil
}

func match(source, title, text string, score float32) vectorstore.Match {
	return vectorstore.Match{
		Record: vectorstore.Record{Chunk: model.Chunk{Source: source, Title: title, Text: text}},
		Score:  score,
	}
}

func writeFile(dir, name, content string) error {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
