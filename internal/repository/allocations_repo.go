package repository

import (
	"context"
	"time"

	"github.com/prabhucts/pmo/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DateRange is an inclusive window on week_start_date.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (w *DateRange) apply(db *gorm.DB) *gorm.DB {
	if w == nil {
		return db
	}
	return db.Where("week_start_date >= ? AND week_start_date <= ?", w.From, w.To)
}

type AllocationsRepo interface {
	// Upsert overwrites allocated hours for an existing (member, project, week).
	Upsert(ctx context.Context, a *models.TeamAllocation) error
	SumForProject(ctx context.Context, projectID uint, window *DateRange) (float64, error)
	SumForTeamWeek(ctx context.Context, teamID uint, week time.Time) (float64, error)
}

type allocationsRepo struct {
	db *gorm.DB
}

func NewAllocationsRepo(db *gorm.DB) AllocationsRepo {
	return &allocationsRepo{db: db}
}

func (r *allocationsRepo) Upsert(ctx context.Context, a *models.TeamAllocation) error {
	return r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{
				{Name: "team_member_id"},
				{Name: "project_id"},
				{Name: "week_start_date"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"team_id", "allocated_hours", "updated_at"}),
		},
	).Create(a).Error
}

func (r *allocationsRepo) SumForProject(ctx context.Context, projectID uint, window *DateRange) (float64, error) {
	var total float64
	q := r.db.WithContext(ctx).Model(&models.TeamAllocation{}).
		Select("COALESCE(SUM(allocated_hours), 0)").
		Where("project_id = ?", projectID)
	err := window.apply(q).Scan(&total).Error
	return total, err
}

func (r *allocationsRepo) SumForTeamWeek(ctx context.Context, teamID uint, week time.Time) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.TeamAllocation{}).
		Select("COALESCE(SUM(allocated_hours), 0)").
		Where("team_id = ? AND week_start_date = ?", teamID, week).
		Scan(&total).Error
	return total, err
}
