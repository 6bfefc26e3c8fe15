package httpapi

import (
	"time"

	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/service"
	"gorm.io/datatypes"
)

const dateLayout = time.DateOnly

type UploadResponseDTO struct {
	Filename      string `json:"filename"`
	FileType      string `json:"file_type"`
	RowsProcessed int    `json:"rows_processed"`
	RowsSkipped   int    `json:"rows_skipped"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

type ProjectDTO struct {
	ID        uint      `json:"id"`
	ITPRCode  string    `json:"itpr_code"`
	Name      string    `json:"name"`
	Theme     string    `json:"theme,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	StartDate *string   `json:"start_date"`
	EndDate   *string   `json:"end_date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toProjectDTO(p *models.Project) ProjectDTO {
	return ProjectDTO{
		ID:        p.ID,
		ITPRCode:  p.ITPRCode,
		Name:      p.Name,
		Theme:     p.Theme,
		Owner:     p.Owner,
		StartDate: formatDate(p.StartDate),
		EndDate:   formatDate(p.EndDate),
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type ProjectSummaryDTO struct {
	Project              ProjectDTO `json:"project"`
	EpicsCount           int64      `json:"epics_count"`
	FeaturesCount        int64      `json:"features_count"`
	UserStoriesCount     int        `json:"user_stories_count"`
	TotalStoryPoints     float64    `json:"total_story_points"`
	CompletedStoryPoints float64    `json:"completed_story_points"`
	CompletionPercentage float64    `json:"completion_percentage"`
}

type RuleDTO struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	RuleType    string            `json:"rule_type"`
	Parameters  datatypes.JSONMap `json:"parameters"`
	IsActive    bool              `json:"is_active"`
	Priority    int               `json:"priority"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func toRuleDTO(r *models.BusinessRule) RuleDTO {
	params := r.Parameters
	if params == nil {
		params = datatypes.JSONMap{}
	}
	return RuleDTO{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		RuleType:    string(r.RuleType),
		Parameters:  params,
		IsActive:    r.IsActive,
		Priority:    r.Priority,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type InsightDTO struct {
	ID          uint           `json:"id"`
	InsightType string         `json:"insight_type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Severity    string         `json:"severity"`
	ProjectID   *uint          `json:"project_id"`
	TeamID      *uint          `json:"team_id"`
	Data        datatypes.JSON `json:"data"`
	IsResolved  bool           `json:"is_resolved"`
	CreatedAt   time.Time      `json:"created_at"`
}

func toInsightDTO(in *models.Insight) InsightDTO {
	data := in.Data
	if len(data) == 0 {
		data = datatypes.JSON("{}")
	}
	return InsightDTO{
		ID:          in.ID,
		InsightType: string(in.InsightType),
		Title:       in.Title,
		Description: in.Description,
		Severity:    string(in.Severity),
		ProjectID:   in.ProjectID,
		TeamID:      in.TeamID,
		Data:        data,
		IsResolved:  in.IsResolved,
		CreatedAt:   in.CreatedAt,
	}
}

type SprintDTO struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Release      string `json:"release,omitempty"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	SprintNumber int    `json:"sprint_number"`
	IsActive     bool   `json:"is_active"`
}

func toSprintDTO(s *models.Sprint) SprintDTO {
	return SprintDTO{
		ID:           s.ID,
		Name:         s.Name,
		Release:      s.Release,
		StartDate:    s.StartDate.Format(dateLayout),
		EndDate:      s.EndDate.Format(dateLayout),
		SprintNumber: s.SprintNumber,
		IsActive:     s.IsActive,
	}
}

type DashboardSummaryDTO struct {
	TotalProjects    int64            `json:"total_projects"`
	ActiveProjects   int64            `json:"active_projects"`
	TotalSprints     int64            `json:"total_sprints"`
	ActiveSprint     *string          `json:"active_sprint"`
	TotalTeams       int64            `json:"total_teams"`
	TotalTeamMembers int64            `json:"total_team_members"`
	TotalUserStories int64            `json:"total_user_stories"`
	TotalStoryPoints float64          `json:"total_story_points"`
	InsightsCount    map[string]int64 `json:"insights_count"`
}

type TemplateDTO struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	FileType    string `json:"file_type"`
	Description string `json:"description"`
	Size        int64  `json:"size"`
}

func toTemplateDTO(t service.Template) TemplateDTO {
	return TemplateDTO{
		ID:          t.ID,
		Filename:    t.Filename,
		FileType:    string(t.Kind),
		Description: t.Description,
		Size:        t.Size,
	}
}

type ChatMessageDTO struct {
	User      string    `json:"user"`
	Bot       string    `json:"bot"`
	Intent    string    `json:"intent"`
	Timestamp time.Time `json:"timestamp"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// parseDate accepts YYYY-MM-DD and returns UTC midnight.
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
