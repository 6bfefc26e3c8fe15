package service

import (
	"context"
	"strings"
	"time"

	"github.com/prabhucts/pmo/internal/database"
	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/repository"
	"go.uber.org/zap"
)

type SprintService interface {
	Create(ctx context.Context, in CreateSprintInput) (*models.Sprint, error)
	List(ctx context.Context) ([]models.Sprint, error)
	Active(ctx context.Context) (*models.Sprint, error)
}

type CreateSprintInput struct {
	Name         string
	Release      string
	StartDate    time.Time
	EndDate      time.Time
	SprintNumber int
	IsActive     bool
}

type sprintService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewSprintService(repo *repository.Repository, log *zap.Logger) SprintService {
	return &sprintService{repo: repo, log: log}
}

func (s *sprintService) Create(ctx context.Context, in CreateSprintInput) (*models.Sprint, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewErr(ErrorCodeInvalidRequest, "name is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() || !in.EndDate.After(in.StartDate) {
		return nil, NewErr(ErrorCodeInvalidRequest, "end_date must be after start_date")
	}

	sp := &models.Sprint{
		Name:         name,
		Release:      in.Release,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		SprintNumber: in.SprintNumber,
		IsActive:     in.IsActive,
	}
	if err := s.repo.Sprints.Create(ctx, sp); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, NewErr(ErrorCodeInvalidRequest, "sprint "+name+" already exists")
		}
		return nil, err
	}
	return sp, nil
}

func (s *sprintService) List(ctx context.Context) ([]models.Sprint, error) {
	return s.repo.Sprints.List(ctx)
}

func (s *sprintService) Active(ctx context.Context) (*models.Sprint, error) {
	sp, err := s.repo.Sprints.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, NewErr(ErrorCodeNotFound, "no active sprint")
	}
	return sp, nil
}
