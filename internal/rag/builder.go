package rag

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"laolaw-rag/internal/model"
)

// DocumentLoader reads one source file into a Document.
type DocumentLoader interface {
	Supports(path string) bool
	Load(path string) (model.Document, error)
}

// SkippedFile is a source file left out of the index and why.
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// BuildReport summarises one build_index run.
type BuildReport struct {
	Files     int           `json:"files"`
	Units     int           `json:"units"`
	Chunks    int           `json:"chunks"`
	Dimension int           `json:"dimension"`
	Degraded  []string      `json:"degraded"`
	Skipped   []SkippedFile `json:"skipped"`
}

// Builder runs the offline ingestion: load, segment, chunk, index.
type Builder struct {
	loader  DocumentLoader
	chunker *Chunker
	index   *Index

	mu sync.Mutex
}

func NewBuilder(loader DocumentLoader, chunker *Chunker, index *Index) *Builder {
	return &Builder{loader: loader, chunker: chunker, index: index}
}

// BuildIndex ingests every file under dir and replaces the index with the
// result. Unreadable files are skipped and listed in the report. A run where
// every file was skipped, or an embedding failure, leaves the previous index in place.
func (b *Builder) BuildIndex(ctx context.Context, dir string) (*BuildReport, error) {
	if !b.mu.TryLock() {
		return nil, ErrBuildInProgress
	}
	defer b.mu.Unlock()

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: source directory: %w", ErrConfiguration, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: source path %q is not a directory", ErrConfiguration, dir)
	}

	report := &BuildReport{Degraded: []string{}, Skipped: []SkippedFile{}}
	var chunks []model.Chunk

	// WalkDir visits entries in lexical order, which keeps rebuilds reproducible.
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := relativeName(dir, path)
		if walkErr != nil {
			report.skip(name, fmt.Errorf("%w: %w", ErrIngestion, walkErr))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if !b.loader.Supports(path) {
			report.skip(name, fmt.Errorf("%w: unsupported format %q", ErrIngestion, filepath.Ext(path)))
			return nil
		}
		doc, err := b.loader.Load(path)
		if err != nil {
			report.skip(name, fmt.Errorf("%w: %w", ErrIngestion, err))
			return nil
		}
		doc.ID = name

		seg := Segment(doc)
		if seg.Degraded {
			report.Degraded = append(report.Degraded, name)
			log.Printf("no article markers found in %s, indexed as one %q unit", name, TitleGeneral)
		}
		report.Files++
		report.Units += len(seg.Units)
		for _, unit := range seg.Units {
			for _, c := range b.chunker.Split(unit) {
				if strings.TrimSpace(c.Text) == "" {
					continue
				}
				chunks = append(chunks, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk source directory: %w", ErrIndexBuild, err)
	}

	if report.Files == 0 && len(report.Skipped) > 0 {
		return nil, fmt.Errorf("%w: none of the %d files under %s could be loaded, index left unchanged",
			ErrIndexBuild, len(report.Skipped), dir)
	}

	stats, err := b.index.Build(ctx, chunks)
	if err != nil {
		return nil, err
	}
	report.Chunks = stats.Records
	report.Dimension = stats.Dimension
	log.Printf("index built: files=%d units=%d chunks=%d skipped=%d degraded=%d",
		report.Files, report.Units, report.Chunks, len(report.Skipped), len(report.Degraded))
	return report, nil
}

func (r *BuildReport) skip(name string, err error) {
	log.Printf("skipped %s: %v", name, err)
	r.Skipped = append(r.Skipped, SkippedFile{Name: name, Reason: err.Error()})
}

func relativeName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}
