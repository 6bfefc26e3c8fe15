package repository

import (
	"context"

	"github.com/prabhucts/pmo/internal/models"
	"gorm.io/gorm"
)

type DefectsRepo interface {
	FindByFormattedID(ctx context.Context, formattedID string) (*models.Defect, error)
	Save(ctx context.Context, d *models.Defect) error
	RelinkStories(ctx context.Context) (int64, error)
	// SumEstimateByFeature matches defects to a feature by its formatted ID,
	// not by a foreign key.
	SumEstimateByFeature(ctx context.Context, featureFormattedID, team string) (float64, error)
}

type defectsRepo struct {
	db *gorm.DB
}

func NewDefectsRepo(db *gorm.DB) DefectsRepo {
	return &defectsRepo{db: db}
}

func (r *defectsRepo) FindByFormattedID(ctx context.Context, formattedID string) (*models.Defect, error) {
	return findOne[models.Defect](r.db.WithContext(ctx), "formatted_id = ?", formattedID)
}

func (r *defectsRepo) Save(ctx context.Context, d *models.Defect) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *defectsRepo) RelinkStories(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE defects
		SET user_story_id = (SELECT s.id FROM user_stories s WHERE s.formatted_id = defects.user_story_ref)
		WHERE user_story_id IS NULL
		  AND user_story_ref <> ''
		  AND EXISTS (SELECT 1 FROM user_stories s WHERE s.formatted_id = defects.user_story_ref)`)
	return res.RowsAffected, res.Error
}

func (r *defectsRepo) SumEstimateByFeature(ctx context.Context, featureFormattedID, team string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Defect{}).
		Select("COALESCE(SUM(plan_estimate), 0)").
		Where("feature_formatted_id = ? AND team = ?", featureFormattedID, team).
		Scan(&total).Error
	return total, err
}
