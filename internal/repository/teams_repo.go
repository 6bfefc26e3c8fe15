package repository

import (
	"context"

	"github.com/prabhucts/pmo/internal/models"
	"gorm.io/gorm"
)

type TeamsRepo interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id uint) (*models.Team, error)
	FindByName(ctx context.Context, name string) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	Count(ctx context.Context) (int64, error)
}

type teamsRepo struct {
	db *gorm.DB
}

func NewTeamsRepo(db *gorm.DB) TeamsRepo {
	return &teamsRepo{db: db}
}

func (r *teamsRepo) Create(ctx context.Context, team *models.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *teamsRepo) GetByID(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	err := r.db.WithContext(ctx).First(&team, id).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamsRepo) FindByName(ctx context.Context, name string) (*models.Team, error) {
	return findOne[models.Team](r.db.WithContext(ctx), "name = ?", name)
}

func (r *teamsRepo) List(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	err := r.db.WithContext(ctx).Order("id").Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *teamsRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Team{}).Count(&n).Error
	return n, err
}
