package repository

import (
	"context"

	"github.com/prabhucts/pmo/internal/models"
	"gorm.io/gorm"
)

type ProjectsRepo interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	FindByCode(ctx context.Context, itprCode string) (*models.Project, error)
	List(ctx context.Context, page Page) ([]models.Project, error)
	ListByStatus(ctx context.Context, status string) ([]models.Project, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type projectsRepo struct {
	db *gorm.DB
}

func NewProjectsRepo(db *gorm.DB) ProjectsRepo {
	return &projectsRepo{db: db}
}

func (r *projectsRepo) Create(ctx context.Context, p *models.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *projectsRepo) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	var p models.Project
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectsRepo) FindByCode(ctx context.Context, itprCode string) (*models.Project, error) {
	return findOne[models.Project](r.db.WithContext(ctx), "itpr_code = ?", itprCode)
}

func (r *projectsRepo) List(ctx context.Context, page Page) ([]models.Project, error) {
	var projects []models.Project
	err := page.apply(r.db.WithContext(ctx).Order("id")).Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectsRepo) ListByStatus(ctx context.Context, status string) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("id").Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectsRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Count(&n).Error
	return n, err
}

func (r *projectsRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
