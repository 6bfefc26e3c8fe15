package service

import (
	"context"
	"errors"
	"strings"

	"github.com/prabhucts/pmo/internal/database"
	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RuleService interface {
	List(ctx context.Context, f repository.RuleFilter) ([]models.BusinessRule, error)
	Create(ctx context.Context, in RuleInput) (*models.BusinessRule, error)
	Update(ctx context.Context, id uint, in RuleUpdate) (*models.BusinessRule, error)
	Delete(ctx context.Context, id uint) error
}

type RuleInput struct {
	Name        string
	Description string
	RuleType    models.RuleType
	Parameters  map[string]any
	IsActive    bool
	Priority    int
}

// RuleUpdate leaves nil fields unchanged.
type RuleUpdate struct {
	Description *string
	RuleType    *models.RuleType
	Parameters  map[string]any
	IsActive    *bool
	Priority    *int
}

type ruleService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewRuleService(repo *repository.Repository, log *zap.Logger) RuleService {
	return &ruleService{repo: repo, log: log}
}

func (s *ruleService) List(ctx context.Context, f repository.RuleFilter) ([]models.BusinessRule, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, NewErr(ErrorCodeInvalidRequest, "unknown rule_type "+string(f.Type))
	}
	return s.repo.Rules.List(ctx, f)
}

func (s *ruleService) Create(ctx context.Context, in RuleInput) (*models.BusinessRule, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewErr(ErrorCodeInvalidRequest, "name is required")
	}
	if !in.RuleType.Valid() {
		return nil, NewErr(ErrorCodeInvalidRequest, "unknown rule_type "+string(in.RuleType))
	}

	var rule *models.BusinessRule
	err := s.repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.New(tx)

		existing, err := repo.Rules.FindByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return NewErr(ErrorCodeRuleExists, "rule already exists")
		}

		rule = &models.BusinessRule{
			Name:        name,
			Description: in.Description,
			RuleType:    in.RuleType,
			Parameters:  in.Parameters,
			IsActive:    in.IsActive,
			Priority:    in.Priority,
		}
		return repo.Rules.Create(ctx, rule)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, NewErr(ErrorCodeRuleExists, "rule already exists")
		}
		return nil, err
	}

	s.log.Info("business rule created", zap.String("name", rule.Name), zap.String("rule_type", string(rule.RuleType)))
	return rule, nil
}

func (s *ruleService) Update(ctx context.Context, id uint, in RuleUpdate) (*models.BusinessRule, error) {
	if in.RuleType != nil && !in.RuleType.Valid() {
		return nil, NewErr(ErrorCodeInvalidRequest, "unknown rule_type "+string(*in.RuleType))
	}

	rule, err := s.repo.Rules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewErr(ErrorCodeNotFound, "rule not found")
		}
		return nil, err
	}

	if in.Description != nil {
		rule.Description = *in.Description
	}
	if in.RuleType != nil {
		rule.RuleType = *in.RuleType
	}
	if in.Parameters != nil {
		rule.Parameters = in.Parameters
	}
	if in.IsActive != nil {
		rule.IsActive = *in.IsActive
	}
	if in.Priority != nil {
		rule.Priority = *in.Priority
	}

	if err := s.repo.Rules.Save(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *ruleService) Delete(ctx context.Context, id uint) error {
	ok, err := s.repo.Rules.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return NewErr(ErrorCodeNotFound, "rule not found")
	}
	s.log.Info("business rule deleted", zap.Uint("id", id))
	return nil
}
