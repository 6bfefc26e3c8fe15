package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/repository"
	"github.com/prabhucts/pmo/internal/rules"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const overrunCriticalPercentage = 20

type InsightService interface {
	// Generate runs every detector once and stores an insight per tripped
	// threshold. Utilization is measured for the week containing asOf.
	Generate(ctx context.Context, asOf time.Time) (*GenerateResult, error)
	List(ctx context.Context, f repository.InsightFilter) ([]models.Insight, error)
	Resolve(ctx context.Context, id uint) (*models.Insight, error)
}

type GenerateResult struct {
	WeekStart time.Time
	ByType    map[models.InsightType]int
}

func (r *GenerateResult) Total() int {
	n := 0
	for _, c := range r.ByType {
		n += c
	}
	return n
}

type insightService struct {
	repo     *repository.Repository
	log      *zap.Logger
	defaults rules.Defaults
}

func NewInsightService(repo *repository.Repository, log *zap.Logger, defaults rules.Defaults) InsightService {
	return &insightService{repo: repo, log: log, defaults: defaults}
}

// WeekStart returns the Monday of t's ISO week at UTC midnight.
func WeekStart(t time.Time) time.Time {
	return rules.WeekStart(t)
}

func (s *insightService) Generate(ctx context.Context, asOf time.Time) (*GenerateResult, error) {
	res := &GenerateResult{WeekStart: WeekStart(asOf), ByType: map[models.InsightType]int{}}

	err := s.repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.New(tx)
		engine, err := rules.NewEngine(ctx, repo, s.defaults)
		if err != nil {
			return err
		}

		emit := func(in *models.Insight, payload any) error {
			raw, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("encode insight data: %w", err)
			}
			in.Data = datatypes.JSON(raw)
			if err := repo.Insights.Create(ctx, in); err != nil {
				return err
			}
			res.ByType[in.InsightType]++
			return nil
		}

		projects, err := repo.Projects.ListByStatus(ctx, models.ProjectStatusActive)
		if err != nil {
			return err
		}
		for _, p := range projects {
			projectID := p.ID

			overrun, found, err := engine.DetectProjectOverruns(ctx, p.ID, "")
			if err != nil {
				return err
			}
			if found && overrun.IsOverrun {
				severity := models.SeverityWarning
				if overrun.OverrunPercentage >= overrunCriticalPercentage {
					severity = models.SeverityCritical
				}
				err := emit(&models.Insight{
					InsightType: models.InsightProjectOverrun,
					Title:       "Project Overrun: " + overrun.ProjectName,
					Description: fmt.Sprintf("Project has overrun by %.1f hours (%.1f%%)", overrun.OverrunHours, overrun.OverrunPercentage),
					Severity:    severity,
					ProjectID:   &projectID,
				}, overrun)
				if err != nil {
					return err
				}
			}

			forecast, found, err := engine.ForecastProjectCompletion(ctx, p.ID)
			if err != nil {
				return err
			}
			if found && len(forecast.Risks) > 0 {
				err := emit(&models.Insight{
					InsightType: models.InsightForecastAlert,
					Title:       "Forecast Risks: " + forecast.ProjectName,
					Description: fmt.Sprintf("Project has %d identified risks", len(forecast.Risks)),
					Severity:    models.SeverityWarning,
					ProjectID:   &projectID,
				}, forecast)
				if err != nil {
					return err
				}
			}
		}

		teams, err := repo.Teams.List(ctx)
		if err != nil {
			return err
		}
		for _, t := range teams {
			teamID := t.ID

			util, found, err := engine.DetectUnderUtilization(ctx, t.ID, res.WeekStart)
			if err != nil {
				return err
			}
			if found && util.IsUnderUtilized {
				err := emit(&models.Insight{
					InsightType: models.InsightUnderUtilization,
					Title:       "Team Under-Utilized: " + util.TeamName,
					Description: fmt.Sprintf("Team is only %.1f%% utilized", util.UtilizationPercentage),
					Severity:    models.SeverityInfo,
					TeamID:      &teamID,
				}, util)
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("insight generation failed", zap.Error(err))
		return nil, err
	}

	s.log.Info("insights generated",
		zap.Time("week_start", res.WeekStart),
		zap.Int("project_overrun", res.ByType[models.InsightProjectOverrun]),
		zap.Int("under_utilization", res.ByType[models.InsightUnderUtilization]),
		zap.Int("forecast_alert", res.ByType[models.InsightForecastAlert]),
	)
	return res, nil
}

func (s *insightService) List(ctx context.Context, f repository.InsightFilter) ([]models.Insight, error) {
	return s.repo.Insights.List(ctx, f)
}

func (s *insightService) Resolve(ctx context.Context, id uint) (*models.Insight, error) {
	ok, err := s.repo.Insights.MarkResolved(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewErr(ErrorCodeNotFound, "insight not found")
	}
	return s.repo.Insights.GetByID(ctx, id)
}
