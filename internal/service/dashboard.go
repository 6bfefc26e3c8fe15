package service

import (
	"context"

	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/repository"
	"go.uber.org/zap"
)

type DashboardService interface {
	Summary(ctx context.Context) (*DashboardSummary, error)
}

type DashboardSummary struct {
	TotalProjects    int64
	ActiveProjects   int64
	TotalSprints     int64
	ActiveSprint     string
	TotalTeams       int64
	TotalTeamMembers int64
	TotalUserStories int64
	TotalStoryPoints float64
	InsightsCount    map[models.InsightType]int64
}

type dashboardService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewDashboardService(repo *repository.Repository, log *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, log: log}
}

func (s *dashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	var (
		out DashboardSummary
		err error
	)

	if out.TotalProjects, err = s.repo.Projects.Count(ctx); err != nil {
		return nil, err
	}
	if out.ActiveProjects, err = s.repo.Projects.CountByStatus(ctx, models.ProjectStatusActive); err != nil {
		return nil, err
	}
	if out.TotalSprints, err = s.repo.Sprints.Count(ctx); err != nil {
		return nil, err
	}
	if out.TotalTeams, err = s.repo.Teams.Count(ctx); err != nil {
		return nil, err
	}
	if out.TotalTeamMembers, err = s.repo.Members.CountActive(ctx); err != nil {
		return nil, err
	}
	if out.TotalUserStories, err = s.repo.Stories.Count(ctx); err != nil {
		return nil, err
	}
	if out.TotalStoryPoints, err = s.repo.Stories.SumAllEstimates(ctx); err != nil {
		return nil, err
	}

	active, err := s.repo.Sprints.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	if active != nil {
		out.ActiveSprint = active.Name
	}

	if out.InsightsCount, err = s.repo.Insights.CountUnresolvedByType(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}
