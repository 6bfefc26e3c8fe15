package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prabhucts/pmo/internal/database"
	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProjectService interface {
	List(ctx context.Context, page repository.Page) ([]models.Project, error)
	Get(ctx context.Context, id uint) (*models.Project, error)
	Create(ctx context.Context, in CreateProjectInput) (*models.Project, error)
	Summary(ctx context.Context, id uint) (*ProjectSummary, error)
}

type CreateProjectInput struct {
	ITPRCode  string
	Name      string
	Theme     string
	Owner     string
	StartDate *time.Time
	EndDate   *time.Time
	Status    string
}

type ProjectSummary struct {
	Project              *models.Project
	EpicsCount           int64
	FeaturesCount        int64
	UserStoriesCount     int
	TotalStoryPoints     float64
	CompletedStoryPoints float64
	CompletionPercentage float64
}

type projectService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewProjectService(repo *repository.Repository, log *zap.Logger) ProjectService {
	return &projectService{repo: repo, log: log}
}

func (s *projectService) List(ctx context.Context, page repository.Page) ([]models.Project, error) {
	return s.repo.Projects.List(ctx, page)
}

func (s *projectService) Get(ctx context.Context, id uint) (*models.Project, error) {
	p, err := s.repo.Projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewErr(ErrorCodeNotFound, "project not found")
		}
		return nil, err
	}
	return p, nil
}

func (s *projectService) Create(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	code := strings.TrimSpace(in.ITPRCode)
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, NewErr(ErrorCodeInvalidRequest, "itpr_code and name are required")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, NewErr(ErrorCodeInvalidRequest, "end_date is before start_date")
	}

	p := &models.Project{
		ITPRCode:  code,
		Name:      name,
		Theme:     in.Theme,
		Owner:     in.Owner,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Status:    in.Status,
	}
	if p.Status == "" {
		p.Status = models.ProjectStatusActive
	}

	if err := s.repo.Projects.Create(ctx, p); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, NewErr(ErrorCodeInvalidRequest, "project "+code+" already exists")
		}
		return nil, err
	}
	return p, nil
}

func (s *projectService) Summary(ctx context.Context, id uint) (*ProjectSummary, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &ProjectSummary{Project: p}
	if out.EpicsCount, err = s.repo.Epics.CountByProject(ctx, id); err != nil {
		return nil, err
	}
	if out.FeaturesCount, err = s.repo.Features.CountByProject(ctx, id); err != nil {
		return nil, err
	}

	stories, err := s.repo.Stories.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	out.UserStoriesCount = len(stories)
	for _, st := range stories {
		out.TotalStoryPoints += st.PlanEstimate
		if models.IsDoneState(st.State) {
			out.CompletedStoryPoints += st.PlanEstimate
		}
	}
	if out.TotalStoryPoints > 0 {
		out.CompletionPercentage = out.CompletedStoryPoints / out.TotalStoryPoints * 100
	}
	return out, nil
}
