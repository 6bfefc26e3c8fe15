package repository

import (
	"context"

	"github.com/prabhucts/pmo/internal/models"
	"gorm.io/gorm"
)

type InsightFilter struct {
	Type     models.InsightType
	Resolved *bool
	Page     Page
}

type InsightsRepo interface {
	Create(ctx context.Context, in *models.Insight) error
	List(ctx context.Context, f InsightFilter) ([]models.Insight, error)
	GetByID(ctx context.Context, id uint) (*models.Insight, error)
	MarkResolved(ctx context.Context, id uint) (bool, error)
	CountUnresolvedByType(ctx context.Context) (map[models.InsightType]int64, error)
}

type insightsRepo struct {
	db *gorm.DB
}

func NewInsightsRepo(db *gorm.DB) InsightsRepo {
	return &insightsRepo{db: db}
}

func (r *insightsRepo) Create(ctx context.Context, in *models.Insight) error {
	return r.db.WithContext(ctx).Create(in).Error
}

func (r *insightsRepo) List(ctx context.Context, f InsightFilter) ([]models.Insight, error) {
	q := r.db.WithContext(ctx).Model(&models.Insight{})
	if f.Type != "" {
		q = q.Where("insight_type = ?", f.Type)
	}
	if f.Resolved != nil {
		q = q.Where("is_resolved = ?", *f.Resolved)
	}

	var out []models.Insight
	err := f.Page.apply(q.Order("created_at DESC").Order("id DESC")).Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *insightsRepo) GetByID(ctx context.Context, id uint) (*models.Insight, error) {
	var in models.Insight
	err := r.db.WithContext(ctx).First(&in, id).Error
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// MarkResolved reports false when no insight has that id.
func (r *insightsRepo) MarkResolved(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Insight{}).Where("id = ?", id).Update("is_resolved", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *insightsRepo) CountUnresolvedByType(ctx context.Context) (map[models.InsightType]int64, error) {
	var rows []struct {
		InsightType models.InsightType
		N           int64
	}
	err := r.db.WithContext(ctx).Model(&models.Insight{}).
		Select("insight_type, COUNT(*) AS n").
		Where("is_resolved = ?", false).
		Group("insight_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[models.InsightType]int64, len(rows))
	for _, row := range rows {
		out[row.InsightType] = row.N
	}
	return out, nil
}
