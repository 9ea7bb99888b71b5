package repository

import (
	"context"

	"golang-stock-scorer/internal/entity"

	"gorm.io/gorm"
)

// RefreshRunRepository persists the ledger of refresh executions.
type RefreshRunRepository interface {
	Create(ctx context.Context, run *entity.RefreshRun) error
	Update(ctx context.Context, run *entity.RefreshRun) error
	FindRecent(ctx context.Context, limit int) ([]entity.RefreshRun, error)
}

type refreshRunRepository struct {
	db *gorm.DB
}

// NewRefreshRunRepository creates a gorm-backed RefreshRunRepository.
func NewRefreshRunRepository(db *gorm.DB) RefreshRunRepository {
	return &refreshRunRepository{db: db}
}

func (r *refreshRunRepository) Create(ctx context.Context, run *entity.RefreshRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *refreshRunRepository) Update(ctx context.Context, run *entity.RefreshRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *refreshRunRepository) FindRecent(ctx context.Context, limit int) ([]entity.RefreshRun, error) {
	if limit < 1 {
		limit = 20
	}
	var runs []entity.RefreshRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
