package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ProjectStatusActive = "Active"

	StoryStateCompleted = "Completed"
	StoryStateAccepted  = "Accepted"
)

// IsDoneState reports whether a work item state counts as delivered.
func IsDoneState(state string) bool {
	return state == StoryStateCompleted || state == StoryStateAccepted
}

type Project struct {
	ID        uint       `gorm:"column:id;primaryKey"`
	ITPRCode  string     `gorm:"column:itpr_code;uniqueIndex;not null"`
	Name      string     `gorm:"column:name;not null"`
	Theme     string     `gorm:"column:theme"`
	Owner     string     `gorm:"column:owner"`
	StartDate *time.Time `gorm:"column:start_date;type:date"`
	EndDate   *time.Time `gorm:"column:end_date;type:date"`
	Status    string     `gorm:"column:status;not null;default:'Active'"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Project) TableName() string {
	return "projects"
}

// Epic.ProjectRef keeps the ITPR code the epic was imported with. The epic
// import creates missing projects, so a non-empty ref always has a project.
type Epic struct {
	ID          uint      `gorm:"column:id;primaryKey"`
	FormattedID string    `gorm:"column:formatted_id;uniqueIndex;not null"`
	Name        string    `gorm:"column:name;not null"`
	ProjectID   *uint     `gorm:"column:project_id;index"`
	ProjectRef  string    `gorm:"column:project_ref"`
	State       string    `gorm:"column:state"`
	Owner       string    `gorm:"column:owner"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Project *Project `gorm:"foreignKey:ProjectID;references:ID"`
}

func (Epic) TableName() string {
	return "epics"
}

type Feature struct {
	ID          uint      `gorm:"column:id;primaryKey"`
	FormattedID string    `gorm:"column:formatted_id;uniqueIndex;not null"`
	Name        string    `gorm:"column:name;not null"`
	EpicID      *uint     `gorm:"column:epic_id;index"`
	EpicRef     string    `gorm:"column:epic_ref"`
	State       string    `gorm:"column:state"`
	Owner       string    `gorm:"column:owner"`
	Release     string    `gorm:"column:release"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Epic *Epic `gorm:"foreignKey:EpicID;references:ID"`
}

func (Feature) TableName() string {
	return "features"
}

// UserStory.Team holds the tracker "Project" column, which in the source
// exports names the delivery team rather than the ITPR project.
type UserStory struct {
	ID           uint      `gorm:"column:id;primaryKey"`
	FormattedID  string    `gorm:"column:formatted_id;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	FeatureID    *uint     `gorm:"column:feature_id;index"`
	FeatureRef   string    `gorm:"column:feature_ref"`
	Owner        string    `gorm:"column:owner"`
	Team         string    `gorm:"column:team;index"`
	Release      string    `gorm:"column:release"`
	Iteration    string    `gorm:"column:iteration;index"`
	PlanEstimate float64   `gorm:"column:plan_estimate;not null;default:0"`
	State        string    `gorm:"column:state"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Feature *Feature `gorm:"foreignKey:FeatureID;references:ID"`
}

func (UserStory) TableName() string {
	return "user_stories"
}

// Defect.FeatureFormattedID is a denormalized copy of the feature code taken
// from the export. Defect estimates are attributed to features through this
// column, not through a foreign key.
type Defect struct {
	ID                 uint      `gorm:"column:id;primaryKey"`
	FormattedID        *string   `gorm:"column:formatted_id;uniqueIndex"`
	Name               string    `gorm:"column:name"`
	UserStoryID        *uint     `gorm:"column:user_story_id;index"`
	UserStoryRef       string    `gorm:"column:user_story_ref"`
	FeatureFormattedID string    `gorm:"column:feature_formatted_id;index"`
	Team               string    `gorm:"column:team;index"`
	Iteration          string    `gorm:"column:iteration"`
	PlanEstimate       float64   `gorm:"column:plan_estimate;not null;default:0"`
	State              string    `gorm:"column:state"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`

	UserStory *UserStory `gorm:"foreignKey:UserStoryID;references:ID"`
}

func (Defect) TableName() string {
	return "defects"
}

type Team struct {
	ID          uint      `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Members []TeamMember `gorm:"foreignKey:TeamID;references:ID"`
}

func (Team) TableName() string {
	return "teams"
}

type TeamMember struct {
	ID                   uint      `gorm:"column:id;primaryKey"`
	Name                 string    `gorm:"column:name;not null;index"`
	Email                string    `gorm:"column:email;uniqueIndex;not null"`
	NetworkID            string    `gorm:"column:network_id"`
	TeamID               *uint     `gorm:"column:team_id;index"`
	Role                 string    `gorm:"column:role"`
	Location             string    `gorm:"column:location"`
	AllocationPercentage float64   `gorm:"column:allocation_percentage;not null"`
	IsActive             bool      `gorm:"column:is_active;not null"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Team *Team `gorm:"foreignKey:TeamID;references:ID"`
}

func (TeamMember) TableName() string {
	return "team_members"
}

type TeamAllocation struct {
	ID             uint      `gorm:"column:id;primaryKey"`
	TeamID         uint      `gorm:"column:team_id;not null;index"`
	ProjectID      uint      `gorm:"column:project_id;not null;uniqueIndex:idx_allocation_member_project_week"`
	TeamMemberID   uint      `gorm:"column:team_member_id;not null;uniqueIndex:idx_allocation_member_project_week"`
	WeekStartDate  time.Time `gorm:"column:week_start_date;type:date;not null;index;uniqueIndex:idx_allocation_member_project_week"`
	AllocatedHours float64   `gorm:"column:allocated_hours;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (TeamAllocation) TableName() string {
	return "team_allocations"
}

type TimeEntry struct {
	ID            uint      `gorm:"column:id;primaryKey"`
	TeamMemberID  uint      `gorm:"column:team_member_id;not null;uniqueIndex:idx_time_entry_member_project_week"`
	ProjectID     uint      `gorm:"column:project_id;not null;uniqueIndex:idx_time_entry_member_project_week"`
	WeekStartDate time.Time `gorm:"column:week_start_date;type:date;not null;index;uniqueIndex:idx_time_entry_member_project_week"`
	ActualHours   float64   `gorm:"column:actual_hours;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (TimeEntry) TableName() string {
	return "time_entries"
}

type Sprint struct {
	ID           uint      `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name;uniqueIndex;not null"`
	Release      string    `gorm:"column:release"`
	StartDate    time.Time `gorm:"column:start_date;type:date;not null"`
	EndDate      time.Time `gorm:"column:end_date;type:date;not null"`
	SprintNumber int       `gorm:"column:sprint_number"`
	IsActive     bool      `gorm:"column:is_active;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Sprint) TableName() string {
	return "sprints"
}

// Length returns the sprint duration in whole days.
func (s Sprint) Length() int {
	return int(s.EndDate.Sub(s.StartDate).Hours() / 24)
}

type RuleType string

const (
	RuleTypeConversion  RuleType = "conversion"
	RuleTypeValidation  RuleType = "validation"
	RuleTypeAlert       RuleType = "alert"
	RuleTypeCalculation RuleType = "calculation"
)

func (t RuleType) Valid() bool {
	switch t {
	case RuleTypeConversion, RuleTypeValidation, RuleTypeAlert, RuleTypeCalculation:
		return true
	}
	return false
}

type BusinessRule struct {
	ID          uint              `gorm:"column:id;primaryKey"`
	Name        string            `gorm:"column:name;uniqueIndex;not null"`
	Description string            `gorm:"column:description;type:text"`
	RuleType    RuleType          `gorm:"column:rule_type;type:text;not null"`
	Parameters  datatypes.JSONMap `gorm:"column:parameters"`
	IsActive    bool              `gorm:"column:is_active;not null"`
	Priority    int               `gorm:"column:priority;not null;default:0"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (BusinessRule) TableName() string {
	return "business_rules"
}

type InsightType string

const (
	InsightProjectOverrun   InsightType = "project_overrun"
	InsightUnderUtilization InsightType = "under_utilization"
	InsightForecastAlert    InsightType = "forecast_alert"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type Insight struct {
	ID          uint           `gorm:"column:id;primaryKey"`
	InsightType InsightType    `gorm:"column:insight_type;type:text;not null;index"`
	Title       string         `gorm:"column:title;not null"`
	Description string         `gorm:"column:description;type:text"`
	Severity    Severity       `gorm:"column:severity;type:text;not null;default:'info'"`
	ProjectID   *uint          `gorm:"column:project_id;index"`
	TeamID      *uint          `gorm:"column:team_id;index"`
	Data        datatypes.JSON `gorm:"column:data"`
	IsResolved  bool           `gorm:"column:is_resolved;not null;default:false"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Insight) TableName() string {
	return "insights"
}

type ChatHistory struct {
	ID          uint           `gorm:"column:id;primaryKey"`
	SessionID   string         `gorm:"column:session_id;not null;index"`
	UserMessage string         `gorm:"column:user_message;type:text;not null"`
	BotResponse string         `gorm:"column:bot_response;type:text;not null"`
	Intent      string         `gorm:"column:intent"`
	Context     datatypes.JSON `gorm:"column:context"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (ChatHistory) TableName() string {
	return "chat_history"
}
