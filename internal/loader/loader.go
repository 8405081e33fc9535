// Package loader reads raw legal source files into paragraph-oriented documents.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"laolaw-rag/internal/model"
	"laolaw-rag/internal/pkg/textclean"
)

var ErrUnsupportedFormat = errors.New("unsupported document format")

// ParseFunc turns raw file content into paragraphs.
type ParseFunc func(content []byte) ([]string, error)

// Registry dispatches files to a parser by extension.
type Registry struct {
	parsers map[string]ParseFunc
	clean   bool
}

type Option func(*Registry)

// WithoutCleaning keeps paragraphs exactly as extracted.
func WithoutCleaning() Option {
	return func(r *Registry) { r.clean = false }
}

// NewRegistry returns a registry for .pdf, .docx, .txt and .md files.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		parsers: map[string]ParseFunc{
			".pdf":  ParsePDF,
			".docx": ParseDOCX,
			".txt":  ParseText,
			".md":   ParseText,
		},
		clean: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads the file at path. The document ID is the base file name.
func (r *Registry) Load(path string) (model.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	parse, ok := r.parsers[ext]
	if !ok {
		return model.Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("read %s failed: %w", filepath.Base(path), err)
	}
	paragraphs, err := parse(content)
	if err != nil {
		return model.Document{}, fmt.Errorf("parse %s failed: %w", filepath.Base(path), err)
	}
	if r.clean {
		paragraphs = textclean.CleanAll(paragraphs)
	}
	return model.Document{
		ID:         filepath.Base(path),
		Format:     strings.TrimPrefix(ext, "."),
		Paragraphs: paragraphs,
	}, nil
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.parsers[strings.ToLower(filepath.Ext(path))]
	return ok
}
