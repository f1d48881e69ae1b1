package repository

import (
	"context"

	"golang-stock-recommender/internal/entity"

	"gorm.io/gorm"
)

// TrainingRunRepository defines the interface for model training history.
type TrainingRunRepository interface {
	Create(ctx context.Context, run *entity.TrainingRun) error
	Update(ctx context.Context, run *entity.TrainingRun) error
	FindByID(ctx context.Context, id uint) (*entity.TrainingRun, error)
	ListRecent(ctx context.Context, limit int) ([]entity.TrainingRun, error)
}

// NewTrainingRunRepository creates a new GORM-based training run repository.
func NewTrainingRunRepository(db *gorm.DB) TrainingRunRepository {
	return &trainingRunRepository{db: db}
}

type trainingRunRepository struct {
	db *gorm.DB
}

// Create creates a new training run record.
func (r *trainingRunRepository) Create(ctx context.Context, run *entity.TrainingRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update updates an existing training run record.
func (r *trainingRunRepository) Update(ctx context.Context, run *entity.TrainingRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// FindByID retrieves a training run by its ID.
func (r *trainingRunRepository) FindByID(ctx context.Context, id uint) (*entity.TrainingRun, error) {
	var run entity.TrainingRun
	if err := r.db.WithContext(ctx).First(&run, id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRecent retrieves the latest training runs, newest first.
func (r *trainingRunRepository) ListRecent(ctx context.Context, limit int) ([]entity.TrainingRun, error) {
	var runs []entity.TrainingRun
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
