package service

import (
	"context"
	"time"

	"github.com/prabhucts/pmo/internal/repository"
	"github.com/prabhucts/pmo/internal/rules"
	"go.uber.org/zap"
)

// MetricsService answers single metric queries. Each call takes a fresh
// snapshot of the rule set. Unknown ids come back as NOT_FOUND.
type MetricsService interface {
	Engine(ctx context.Context) (*rules.Engine, error)
	ProjectOverrun(ctx context.Context, projectID uint, sprint string) (*rules.OverrunReport, error)
	ProjectForecast(ctx context.Context, projectID uint) (*rules.ForecastReport, error)
	TeamUtilization(ctx context.Context, teamID uint, week time.Time) (*rules.UtilizationReport, error)
	FeatureHours(ctx context.Context, featureID uint, team string) (*FeatureHoursReport, error)
	ClarityAllocation(ctx context.Context, itprCode string, memberID uint, weeks []time.Time) (*rules.ClarityAllocation, error)
}

type FeatureHoursReport struct {
	rules.FeatureHours
	HoursPerWeek float64 `json:"hours_per_week"`
}

type metricsService struct {
	repo     *repository.Repository
	log      *zap.Logger
	defaults rules.Defaults
}

func NewMetricsService(repo *repository.Repository, log *zap.Logger, defaults rules.Defaults) MetricsService {
	return &metricsService{repo: repo, log: log, defaults: defaults}
}

func (s *metricsService) Engine(ctx context.Context) (*rules.Engine, error) {
	return rules.NewEngine(ctx, s.repo, s.defaults)
}

func (s *metricsService) ProjectOverrun(ctx context.Context, projectID uint, sprint string) (*rules.OverrunReport, error) {
	e, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}
	out, found, err := e.DetectProjectOverruns(ctx, projectID, sprint)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, NewErr(ErrorCodeNotFound, "project not found")
	}
	return &out, nil
}

func (s *metricsService) ProjectForecast(ctx context.Context, projectID uint) (*rules.ForecastReport, error) {
	e, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}
	out, found, err := e.ForecastProjectCompletion(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, NewErr(ErrorCodeNotFound, "project not found")
	}
	return &out, nil
}

func (s *metricsService) TeamUtilization(ctx context.Context, teamID uint, week time.Time) (*rules.UtilizationReport, error) {
	e, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}
	out, found, err := e.DetectUnderUtilization(ctx, teamID, week)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, NewErr(ErrorCodeNotFound, "team not found")
	}
	return &out, nil
}

func (s *metricsService) FeatureHours(ctx context.Context, featureID uint, team string) (*FeatureHoursReport, error) {
	if team == "" {
		return nil, NewErr(ErrorCodeInvalidRequest, "team is required")
	}
	e, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}
	fh, found, err := e.TotalHoursForFeature(ctx, featureID, team)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, NewErr(ErrorCodeNotFound, "feature not found")
	}
	perWeek, err := e.HoursPerWeek(ctx, fh.TotalHours, team, 0)
	if err != nil {
		return nil, err
	}
	return &FeatureHoursReport{FeatureHours: fh, HoursPerWeek: perWeek}, nil
}

func (s *metricsService) ClarityAllocation(ctx context.Context, itprCode string, memberID uint, weeks []time.Time) (*rules.ClarityAllocation, error) {
	if itprCode == "" {
		return nil, NewErr(ErrorCodeInvalidRequest, "itpr is required")
	}
	e, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}
	out, found, err := e.ClarityAllocation(ctx, itprCode, memberID, weeks)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, NewErr(ErrorCodeNotFound, "project or team member not found")
	}
	return &out, nil
}
