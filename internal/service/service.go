package service

import (
	"github.com/prabhucts/pmo/internal/repository"
	"github.com/prabhucts/pmo/internal/rules"
	"go.uber.org/zap"
)

type Options struct {
	Rules        rules.Defaults
	TemplatesDir string
}

type Services struct {
	Imports   ImportService
	Insights  InsightService
	Rules     RuleService
	Projects  ProjectService
	Metrics   MetricsService
	Sprints   SprintService
	Dashboard DashboardService
	Templates TemplateService
}

func New(repo *repository.Repository, log *zap.Logger, opts Options) *Services {
	return buildServices(repo, log, opts)
}

func buildServices(repo *repository.Repository, log *zap.Logger, opts Options) *Services {
	return &Services{
		Imports:   NewImportService(repo, log),
		Insights:  NewInsightService(repo, log, opts.Rules),
		Rules:     NewRuleService(repo, log),
		Projects:  NewProjectService(repo, log),
		Metrics:   NewMetricsService(repo, log, opts.Rules),
		Sprints:   NewSprintService(repo, log),
		Dashboard: NewDashboardService(repo, log),
		Templates: NewTemplateService(opts.TemplatesDir, log),
	}
}
