// Package file keeps the vector index as a JSON snapshot on local disk.
// Rebuilds write a temporary file and rename it over the old snapshot, so a
// crash mid-build leaves the previous index intact.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"laolaw-rag/internal/vectorstore"
	"laolaw-rag/internal/vectorstore/memory"
)

const snapshotName = "index.json"

type snapshotFile struct {
	Version   int                  `json:"version"`
	Metric    string               `json:"metric"`
	Dimension int                  `json:"dimension"`
	BuiltAt   time.Time            `json:"built_at"`
	Records   []vectorstore.Record `json:"records"`
}

// Store serves queries from memory and persists every Replace to dir.
type Store struct {
	dir  string
	mem  *memory.Store
	mu   sync.Mutex // serializes writers
	path string
}

// Open loads the snapshot under dir if one exists. A missing snapshot yields an empty store.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("index directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index directory failed: %w", err)
	}
	s := &Store{
		dir:  dir,
		mem:  memory.NewStore(),
		path: filepath.Join(dir, snapshotName),
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index snapshot failed: %w", err)
	}
	var snap snapshotFile
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parse index snapshot failed: %w", err)
	}
	if err := s.mem.Replace(context.Background(), snap.Records); err != nil {
		return nil, fmt.Errorf("load index snapshot failed: %w", err)
	}
	return s, nil
}

func (s *Store) Replace(ctx context.Context, records []vectorstore.Record) error {
	dim, err := vectorstore.Validate(records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(snapshotFile{
		Version:   1,
		Metric:    "cosine",
		Dimension: dim,
		BuiltAt:   time.Now().UTC(),
		Records:   records,
	})
	if err != nil {
		return fmt.Errorf("marshal index snapshot failed: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, snapshotName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot failed: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp snapshot failed: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp snapshot failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot failed: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("swap index snapshot failed: %w", err)
	}
	return s.mem.Replace(ctx, records)
}

func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]vectorstore.Match, error) {
	return s.mem.Search(ctx, vector, k)
}

func (s *Store) Stats(ctx context.Context) (vectorstore.Stats, error) {
	return s.mem.Stats(ctx)
}
