package repository

import (
	"context"

	"github.com/prabhucts/pmo/internal/models"
	"gorm.io/gorm"
)

type MembersRepo interface {
	Create(ctx context.Context, m *models.TeamMember) error
	GetByID(ctx context.Context, id uint) (*models.TeamMember, error)
	FindByEmail(ctx context.Context, email string) (*models.TeamMember, error)
	ListActiveByTeam(ctx context.Context, teamID uint) ([]models.TeamMember, error)
	ListActive(ctx context.Context) ([]models.TeamMember, error)
	SetActive(ctx context.Context, id uint, active bool) error
	CountActive(ctx context.Context) (int64, error)
}

type membersRepo struct {
	db *gorm.DB
}

func NewMembersRepo(db *gorm.DB) MembersRepo {
	return &membersRepo{db: db}
}

func (r *membersRepo) Create(ctx context.Context, m *models.TeamMember) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *membersRepo) GetByID(ctx context.Context, id uint) (*models.TeamMember, error) {
	var m models.TeamMember
	err := r.db.WithContext(ctx).First(&m, id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *membersRepo) FindByEmail(ctx context.Context, email string) (*models.TeamMember, error) {
	return findOne[models.TeamMember](r.db.WithContext(ctx), "email = ?", email)
}

func (r *membersRepo) ListActiveByTeam(ctx context.Context, teamID uint) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := r.db.WithContext(ctx).Where("team_id = ? AND is_active = ?", teamID, true).Order("id").Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *membersRepo) ListActive(ctx context.Context) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *membersRepo) SetActive(ctx context.Context, id uint, active bool) error {
	return r.db.WithContext(ctx).Model(&models.TeamMember{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *membersRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.TeamMember{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}
