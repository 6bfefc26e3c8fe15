package repository

import (
	"context"

	"github.com/prabhucts/pmo/internal/models"
	"gorm.io/gorm"
)

type StoriesRepo interface {
	FindByFormattedID(ctx context.Context, formattedID string) (*models.UserStory, error)
	Save(ctx context.Context, s *models.UserStory) error
	RelinkFeatures(ctx context.Context) (int64, error)
	// SumEstimate totals plan estimates of the feature's stories owned by team.
	SumEstimate(ctx context.Context, featureID uint, team string) (float64, error)
	SumEstimateByProjectTeam(ctx context.Context, projectID uint, team string) (float64, error)
	// ListByProject walks feature -> epic -> project.
	ListByProject(ctx context.Context, projectID uint) ([]models.UserStory, error)
	ListByIteration(ctx context.Context, iteration string) ([]models.UserStory, error)
	Count(ctx context.Context) (int64, error)
	SumAllEstimates(ctx context.Context) (float64, error)
}

type storiesRepo struct {
	db *gorm.DB
}

func NewStoriesRepo(db *gorm.DB) StoriesRepo {
	return &storiesRepo{db: db}
}

func (r *storiesRepo) FindByFormattedID(ctx context.Context, formattedID string) (*models.UserStory, error) {
	return findOne[models.UserStory](r.db.WithContext(ctx), "formatted_id = ?", formattedID)
}

func (r *storiesRepo) Save(ctx context.Context, s *models.UserStory) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *storiesRepo) RelinkFeatures(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE user_stories
		SET feature_id = (SELECT f.id FROM features f WHERE f.formatted_id = user_stories.feature_ref)
		WHERE feature_id IS NULL
		  AND feature_ref <> ''
		  AND EXISTS (SELECT 1 FROM features f WHERE f.formatted_id = user_stories.feature_ref)`)
	return res.RowsAffected, res.Error
}

func (r *storiesRepo) SumEstimate(ctx context.Context, featureID uint, team string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.UserStory{}).
		Select("COALESCE(SUM(plan_estimate), 0)").
		Where("feature_id = ? AND team = ?", featureID, team).
		Scan(&total).Error
	return total, err
}

func (r *storiesRepo) SumEstimateByProjectTeam(ctx context.Context, projectID uint, team string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.UserStory{}).
		Select("COALESCE(SUM(user_stories.plan_estimate), 0)").
		Joins("JOIN features ON features.id = user_stories.feature_id").
		Joins("JOIN epics ON epics.id = features.epic_id").
		Where("epics.project_id = ? AND user_stories.team = ?", projectID, team).
		Scan(&total).Error
	return total, err
}

func (r *storiesRepo) ListByProject(ctx context.Context, projectID uint) ([]models.UserStory, error) {
	var stories []models.UserStory
	err := r.db.WithContext(ctx).
		Joins("JOIN features ON features.id = user_stories.feature_id").
		Joins("JOIN epics ON epics.id = features.epic_id").
		Where("epics.project_id = ?", projectID).
		Order("user_stories.id").
		Find(&stories).Error
	if err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *storiesRepo) ListByIteration(ctx context.Context, iteration string) ([]models.UserStory, error) {
	var stories []models.UserStory
	err := r.db.WithContext(ctx).Where("iteration = ?", iteration).Order("id").Find(&stories).Error
	if err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *storiesRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserStory{}).Count(&n).Error
	return n, err
}

func (r *storiesRepo) SumAllEstimates(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.UserStory{}).
		Select("COALESCE(SUM(plan_estimate), 0)").
		Scan(&total).Error
	return total, err
}
