package repository

import (
	"context"

	"github.com/prabhucts/pmo/internal/models"
	"gorm.io/gorm"
)

type SprintsRepo interface {
	Create(ctx context.Context, s *models.Sprint) error
	FindByName(ctx context.Context, name string) (*models.Sprint, error)
	// FindActive returns the lowest-id sprint flagged active, or nil.
	FindActive(ctx context.Context) (*models.Sprint, error)
	List(ctx context.Context) ([]models.Sprint, error)
	Count(ctx context.Context) (int64, error)
}

type sprintsRepo struct {
	db *gorm.DB
}

func NewSprintsRepo(db *gorm.DB) SprintsRepo {
	return &sprintsRepo{db: db}
}

func (r *sprintsRepo) Create(ctx context.Context, s *models.Sprint) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sprintsRepo) FindByName(ctx context.Context, name string) (*models.Sprint, error) {
	return findOne[models.Sprint](r.db.WithContext(ctx), "name = ?", name)
}

func (r *sprintsRepo) FindActive(ctx context.Context) (*models.Sprint, error) {
	return findOne[models.Sprint](r.db.WithContext(ctx).Order("id"), "is_active = ?", true)
}

func (r *sprintsRepo) List(ctx context.Context) ([]models.Sprint, error) {
	var sprints []models.Sprint
	err := r.db.WithContext(ctx).Order("start_date DESC").Order("id DESC").Find(&sprints).Error
	if err != nil {
		return nil, err
	}
	return sprints, nil
}

func (r *sprintsRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Sprint{}).Count(&n).Error
	return n, err
}
