package repository

import (
	"context"

	"github.com/prabhucts/pmo/internal/models"
	"gorm.io/gorm"
)

type EpicsRepo interface {
	FindByFormattedID(ctx context.Context, formattedID string) (*models.Epic, error)
	Save(ctx context.Context, e *models.Epic) error
	CountByProject(ctx context.Context, projectID uint) (int64, error)
}

type epicsRepo struct {
	db *gorm.DB
}

func NewEpicsRepo(db *gorm.DB) EpicsRepo {
	return &epicsRepo{db: db}
}

func (r *epicsRepo) FindByFormattedID(ctx context.Context, formattedID string) (*models.Epic, error) {
	return findOne[models.Epic](r.db.WithContext(ctx), "formatted_id = ?", formattedID)
}

func (r *epicsRepo) Save(ctx context.Context, e *models.Epic) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *epicsRepo) CountByProject(ctx context.Context, projectID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Epic{}).Where("project_id = ?", projectID).Count(&n).Error
	return n, err
}
