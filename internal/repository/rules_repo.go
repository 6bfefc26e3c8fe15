package repository

import (
	"context"

	"github.com/prabhucts/pmo/internal/models"
	"gorm.io/gorm"
)

type RuleFilter struct {
	Type       models.RuleType
	ActiveOnly bool
}

type RulesRepo interface {
	ListActive(ctx context.Context) ([]models.BusinessRule, error)
	List(ctx context.Context, f RuleFilter) ([]models.BusinessRule, error)
	GetByID(ctx context.Context, id uint) (*models.BusinessRule, error)
	FindByName(ctx context.Context, name string) (*models.BusinessRule, error)
	Create(ctx context.Context, rule *models.BusinessRule) error
	Save(ctx context.Context, rule *models.BusinessRule) error
	Delete(ctx context.Context, id uint) (bool, error)
}

type rulesRepo struct {
	db *gorm.DB
}

func NewRulesRepo(db *gorm.DB) RulesRepo {
	return &rulesRepo{db: db}
}

func (r *rulesRepo) ListActive(ctx context.Context) ([]models.BusinessRule, error) {
	return r.List(ctx, RuleFilter{ActiveOnly: true})
}

func (r *rulesRepo) List(ctx context.Context, f RuleFilter) ([]models.BusinessRule, error) {
	q := r.db.WithContext(ctx).Model(&models.BusinessRule{})
	if f.Type != "" {
		q = q.Where("rule_type = ?", f.Type)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var rules []models.BusinessRule
	err := q.Order("priority DESC").Order("id").Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *rulesRepo) GetByID(ctx context.Context, id uint) (*models.BusinessRule, error) {
	var rule models.BusinessRule
	err := r.db.WithContext(ctx).First(&rule, id).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *rulesRepo) FindByName(ctx context.Context, name string) (*models.BusinessRule, error) {
	return findOne[models.BusinessRule](r.db.WithContext(ctx), "name = ?", name)
}

func (r *rulesRepo) Create(ctx context.Context, rule *models.BusinessRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *rulesRepo) Save(ctx context.Context, rule *models.BusinessRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *rulesRepo) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.BusinessRule{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
