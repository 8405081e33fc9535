package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"laolaw-rag/internal/model"
)

const maxHistoryPageSize = 100

type QAHistoryRepository struct {
	db *gorm.DB
}

func NewQAHistoryRepository(db *gorm.DB) *QAHistoryRepository {
	return &QAHistoryRepository{db: db}
}

func (r *QAHistoryRepository) Create(ctx context.Context, entry *model.QAHistory) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create qa history failed: %w", err)
	}
	return nil
}

// ListPage returns one page of history in creation order and the total count.
// page starts at 1.
func (r *QAHistoryRepository) ListPage(ctx context.Context, page, pageSize int) ([]model.QAHistory, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxHistoryPageSize {
		pageSize = 20
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.QAHistory{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count qa history failed: %w", err)
	}

	entries := make([]model.QAHistory, 0, pageSize)
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").Order("id ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("list qa history failed: %w", err)
	}
	return entries, total, nil
}
