package repository

import (
	"context"

	"github.com/prabhucts/pmo/internal/models"
	"gorm.io/gorm"
)

type FeaturesRepo interface {
	GetByID(ctx context.Context, id uint) (*models.Feature, error)
	FindByFormattedID(ctx context.Context, formattedID string) (*models.Feature, error)
	Save(ctx context.Context, f *models.Feature) error
	RelinkEpics(ctx context.Context) (int64, error)
	CountByProject(ctx context.Context, projectID uint) (int64, error)
}

type featuresRepo struct {
	db *gorm.DB
}

func NewFeaturesRepo(db *gorm.DB) FeaturesRepo {
	return &featuresRepo{db: db}
}

func (r *featuresRepo) GetByID(ctx context.Context, id uint) (*models.Feature, error) {
	var f models.Feature
	err := r.db.WithContext(ctx).First(&f, id).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *featuresRepo) FindByFormattedID(ctx context.Context, formattedID string) (*models.Feature, error) {
	return findOne[models.Feature](r.db.WithContext(ctx), "formatted_id = ?", formattedID)
}

func (r *featuresRepo) Save(ctx context.Context, f *models.Feature) error {
	return r.db.WithContext(ctx).Save(f).Error
}

func (r *featuresRepo) RelinkEpics(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE features
		SET epic_id = (SELECT e.id FROM epics e WHERE e.formatted_id = features.epic_ref)
		WHERE epic_id IS NULL
		  AND epic_ref <> ''
		  AND EXISTS (SELECT 1 FROM epics e WHERE e.formatted_id = features.epic_ref)`)
	return res.RowsAffected, res.Error
}

func (r *featuresRepo) CountByProject(ctx context.Context, projectID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Feature{}).
		Joins("JOIN epics ON epics.id = features.epic_id").
		Where("epics.project_id = ?", projectID).
		Count(&n).Error
	return n, err
}
