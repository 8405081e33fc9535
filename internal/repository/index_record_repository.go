package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"laolaw-rag/internal/model"
	"laolaw-rag/internal/vectorstore"
	"laolaw-rag/internal/vectorstore/memory"
)

const indexInsertBatchSize = 200

// IndexRecordRepository is a vectorstore.Store persisted in MySQL. Each Replace
// writes a new build and activates it in the same transaction; searches run on
// an in-memory copy of the active build that is reloaded when it changes.
type IndexRecordRepository struct {
	db *gorm.DB

	mu       sync.Mutex
	loadedID string
	snapshot *memory.Store
}

var _ vectorstore.Store = (*IndexRecordRepository)(nil)

func NewIndexRecordRepository(db *gorm.DB) *IndexRecordRepository {
	return &IndexRecordRepository{db: db, snapshot: memory.NewStore()}
}

func (r *IndexRecordRepository) Replace(ctx context.Context, records []vectorstore.Record) error {
	dim, err := vectorstore.Validate(records)
	if err != nil {
		return err
	}

	build := model.IndexBuild{ID: uuid.NewString(), Dimension: dim, Records: len(records)}
	rows := make([]model.IndexRecord, len(records))
	for i, rec := range records {
		rows[i] = model.IndexRecord{
			BuildID:  build.ID,
			ChunkID:  rec.ID,
			Source:   rec.Chunk.Source,
			Title:    rec.Chunk.Title,
			Position: rec.Chunk.Position,
			Overlap:  rec.Chunk.Overlap,
			Content:  rec.Chunk.Text,
			Vector:   model.EncodeVector(rec.Vector),
		}
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&build).Error; err != nil {
			return fmt.Errorf("create index build failed: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(&rows, indexInsertBatchSize).Error; err != nil {
				return fmt.Errorf("create index records failed: %w", err)
			}
		}
		if err := tx.Model(&model.IndexBuild{}).Where("id <> ?", build.ID).Update("active", false).Error; err != nil {
			return fmt.Errorf("deactivate index builds failed: %w", err)
		}
		if err := tx.Model(&model.IndexBuild{}).Where("id = ?", build.ID).Update("active", true).Error; err != nil {
			return fmt.Errorf("activate index build failed: %w", err)
		}
		if err := tx.Where("build_id <> ?", build.ID).Delete(&model.IndexRecord{}).Error; err != nil {
			return fmt.Errorf("delete stale index records failed: %w", err)
		}
		if err := tx.Where("id <> ?", build.ID).Delete(&model.IndexBuild{}).Error; err != nil {
			return fmt.Errorf("delete stale index builds failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.snapshot.Replace(ctx, records); err != nil {
		return err
	}
	r.loadedID = build.ID
	return nil
}

func (r *IndexRecordRepository) Search(ctx context.Context, vector []float32, k int) ([]vectorstore.Match, error) {
	snapshot, err := r.current(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Search(ctx, vector, k)
}

func (r *IndexRecordRepository) Stats(ctx context.Context) (vectorstore.Stats, error) {
	build, err := r.activeBuild(ctx)
	if err != nil {
		return vectorstore.Stats{}, err
	}
	if build == nil {
		return vectorstore.Stats{}, nil
	}
	return vectorstore.Stats{Count: build.Records, Dimension: build.Dimension}, nil
}

func (r *IndexRecordRepository) activeBuild(ctx context.Context) (*model.IndexBuild, error) {
	var build model.IndexBuild
	err := r.db.WithContext(ctx).Where("active = ?", true).Take(&build).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active index build failed: %w", err)
	}
	return &build, nil
}

// current returns the in-memory copy of the active build, reloading it when
// another process has activated a newer build.
func (r *IndexRecordRepository) current(ctx context.Context) (*memory.Store, error) {
	build, err := r.activeBuild(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if build == nil {
		if r.loadedID != "" {
			r.snapshot = memory.NewStore()
			r.loadedID = ""
		}
		return r.snapshot, nil
	}
	if build.ID == r.loadedID {
		return r.snapshot, nil
	}

	var rows []model.IndexRecord
	if err := r.db.WithContext(ctx).Where("build_id = ?", build.ID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load index records failed: %w", err)
	}
	records := make([]vectorstore.Record, len(rows))
	for i := range rows {
		vec, err := model.DecodeVector(rows[i].Vector)
		if err != nil {
			return nil, fmt.Errorf("load index record %d failed: %w", rows[i].ID, err)
		}
		records[i] = vectorstore.Record{
			ID: rows[i].ChunkID,
			Chunk: model.Chunk{
				Source:   rows[i].Source,
				Title:    rows[i].Title,
				Position: rows[i].Position,
				Overlap:  rows[i].Overlap,
				Text:     rows[i].Content,
			},
			Vector: vec,
		}
	}
	snapshot := memory.NewStore()
	if err := snapshot.Replace(ctx, records); err != nil {
		return nil, fmt.Errorf("load index build %s failed: %w", build.ID, err)
	}
	r.snapshot = snapshot
	r.loadedID = build.ID
	return snapshot, nil
}
