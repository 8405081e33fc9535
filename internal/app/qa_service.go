package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"laolaw-rag/internal/rag"
)

const maxQuestionRunes = 4000

// AskInput is one question with the earlier turns of the conversation.
type AskInput struct {
	Question string
	History  []rag.Turn
}

// IndexCacheFlusher drops state derived from the previous index.
type IndexCacheFlusher interface {
	Flush()
}

// QAService is the application entry point for answering questions and
// rebuilding the index.
type QAService struct {
	pipeline       *rag.Pipeline
	builder        *rag.Builder
	sourceDir      string
	requestTimeout time.Duration
	flusher        IndexCacheFlusher
}

func NewQAService(pipeline *rag.Pipeline, builder *rag.Builder, sourceDir string, requestTimeout time.Duration, flusher IndexCacheFlusher) *QAService {
	return &QAService{
		pipeline:       pipeline,
		builder:        builder,
		sourceDir:      sourceDir,
		requestTimeout: requestTimeout,
		flusher:        flusher,
	}
}

func (s *QAService) Ask(ctx context.Context, input AskInput) (*rag.Answer, error) {
	if len([]rune(input.Question)) > maxQuestionRunes {
		return nil, fmt.Errorf("%w: question longer than %d characters", rag.ErrInvalidInput, maxQuestionRunes)
	}
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}
	return s.pipeline.AnswerQuestion(ctx, input.Question, input.History)
}

// BuildIndex rebuilds the index from the configured source directory, or from
// directory when given. directory is resolved against the source directory and
// must stay inside it.
func (s *QAService) BuildIndex(ctx context.Context, directory string) (*rag.BuildReport, error) {
	if s.builder == nil {
		return nil, fmt.Errorf("%w: index builder not configured", rag.ErrConfiguration)
	}
	dir, err := s.resolveSourceDir(directory)
	if err != nil {
		return nil, err
	}
	report, err := s.builder.BuildIndex(ctx, dir)
	if err != nil {
		return nil, err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return report, nil
}

func (s *QAService) resolveSourceDir(directory string) (string, error) {
	dir := strings.TrimSpace(directory)
	if dir == "" {
		return s.sourceDir, nil
	}
	root, err := filepath.Abs(s.sourceDir)
	if err != nil {
		return "", fmt.Errorf("%w: resolve source directory: %w", rag.ErrConfiguration, err)
	}
	target := dir
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: directory %q is outside the source directory", rag.ErrInvalidInput, directory)
	}
	return target, nil
}
