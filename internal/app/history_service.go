package app

import (
	"context"
	"fmt"
	"log"

	"laolaw-rag/internal/model"
	"laolaw-rag/internal/rag"
)

const (
	defaultHistoryPageSize = 20
	maxHistoryPageSize     = 100
)

type HistoryPublisher interface {
	Publish(ctx context.Context, entry model.QAHistory) error
}

type HistoryRepository interface {
	Create(ctx context.Context, entry *model.QAHistory) error
	ListPage(ctx context.Context, page, pageSize int) ([]model.QAHistory, int64, error)
}

type HistoryCache interface {
	GetPage(ctx context.Context, page, pageSize int) (*model.HistoryPage, bool, error)
	SetPage(ctx context.Context, hp *model.HistoryPage) error
	Invalidate(ctx context.Context) error
}

// HistoryService records answered questions and serves the paged history.
// With a publisher, writes go through the queue and the persist worker;
// without one they go straight to the repository.
type HistoryService struct {
	publisher HistoryPublisher
	repo      HistoryRepository
	cache     HistoryCache
}

var _ rag.Recorder = (*HistoryService)(nil)

func NewHistoryService(publisher HistoryPublisher, repo HistoryRepository, cache HistoryCache) *HistoryService {
	return &HistoryService{publisher: publisher, repo: repo, cache: cache}
}

func (s *HistoryService) Record(ctx context.Context, answer rag.Answer) error {
	entry := model.QAHistory{
		Question:  answer.Question,
		Answer:    answer.Text,
		Citations: answer.Citations,
		CreatedAt: answer.CreatedAt,
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, entry); err != nil {
			return fmt.Errorf("enqueue history failed: %w", err)
		}
		return nil
	}
	if s.repo == nil {
		return fmt.Errorf("%w: no history store configured", rag.ErrConfiguration)
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Printf("invalidate history cache failed: %v", err)
		}
	}
	return nil
}

// ListHistory returns page (from 1) of the history in creation order.
func (s *HistoryService) ListHistory(ctx context.Context, page, pageSize int) (*model.HistoryPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", rag.ErrInvalidInput)
	}
	if pageSize <= 0 {
		pageSize = defaultHistoryPageSize
	}
	if pageSize > maxHistoryPageSize {
		return nil, fmt.Errorf("%w: page_size must be at most %d", rag.ErrInvalidInput, maxHistoryPageSize)
	}
	if s.repo == nil {
		return nil, fmt.Errorf("%w: no history store configured", rag.ErrConfiguration)
	}

	if s.cache != nil {
		if cached, hit, err := s.cache.GetPage(ctx, page, pageSize); err == nil && hit {
			return cached, nil
		} else if err != nil {
			log.Printf("read history cache failed: %v", err)
		}
	}

	items, total, err := s.repo.ListPage(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	hp := &model.HistoryPage{Items: items, Total: total, Page: page, PageSize: pageSize}
	if s.cache != nil {
		if err := s.cache.SetPage(ctx, hp); err != nil {
			log.Printf("write history cache failed: %v", err)
		}
	}
	return hp, nil
}
