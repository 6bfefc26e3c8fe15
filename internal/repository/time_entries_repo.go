package repository

import (
	"context"
	"time"

	"github.com/prabhucts/pmo/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TimeEntriesRepo interface {
	Upsert(ctx context.Context, e *models.TimeEntry) error
	SumForProject(ctx context.Context, projectID uint, window *DateRange) (float64, error)
	// MemberIDsForWeek returns the members with at least one entry for week.
	MemberIDsForWeek(ctx context.Context, week time.Time) ([]uint, error)
}

type timeEntriesRepo struct {
	db *gorm.DB
}

func NewTimeEntriesRepo(db *gorm.DB) TimeEntriesRepo {
	return &timeEntriesRepo{db: db}
}

func (r *timeEntriesRepo) Upsert(ctx context.Context, e *models.TimeEntry) error {
	return r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{
				{Name: "team_member_id"},
				{Name: "project_id"},
				{Name: "week_start_date"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"actual_hours", "updated_at"}),
		},
	).Create(e).Error
}

func (r *timeEntriesRepo) SumForProject(ctx context.Context, projectID uint, window *DateRange) (float64, error) {
	var total float64
	q := r.db.WithContext(ctx).Model(&models.TimeEntry{}).
		Select("COALESCE(SUM(actual_hours), 0)").
		Where("project_id = ?", projectID)
	err := window.apply(q).Scan(&total).Error
	return total, err
}

func (r *timeEntriesRepo) MemberIDsForWeek(ctx context.Context, week time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.TimeEntry{}).
		Distinct("team_member_id").
		Where("week_start_date = ?", week).
		Pluck("team_member_id", &ids).Error
	return ids, err
}
