package rules

import (
	"context"
	"errors"
	"time"

	"github.com/prabhucts/pmo/internal/repository"
	"gorm.io/gorm"
)

type OverrunReport struct {
	ProjectID         uint    `json:"project_id"`
	ProjectName       string  `json:"project_name"`
	ITPRCode          string  `json:"itpr_code"`
	Sprint            string  `json:"sprint,omitempty"`
	PlannedHours      float64 `json:"planned_hours"`
	ActualHours       float64 `json:"actual_hours"`
	OverrunHours      float64 `json:"overrun_hours"`
	OverrunPercentage float64 `json:"overrun_percentage"`
	IsOverrun         bool    `json:"is_overrun"`
}

// DetectProjectOverruns compares allocated against reported hours. A known
// sprint name narrows both sums to weeks starting inside the sprint; an
// unknown one is ignored.
func (e *Engine) DetectProjectOverruns(ctx context.Context, projectID uint, sprintName string) (OverrunReport, bool, error) {
	out := OverrunReport{ProjectID: projectID, Sprint: sprintName}

	project, err := e.repo.Projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, false, nil
		}
		return out, false, err
	}
	out.ProjectName = project.Name
	out.ITPRCode = project.ITPRCode

	var window *repository.DateRange
	if sprintName != "" {
		sprint, err := e.repo.Sprints.FindByName(ctx, sprintName)
		if err != nil {
			return out, false, err
		}
		if sprint != nil {
			window = &repository.DateRange{From: sprint.StartDate, To: sprint.EndDate}
		}
	}

	if out.PlannedHours, err = e.repo.Allocations.SumForProject(ctx, projectID, window); err != nil {
		return out, false, err
	}
	if out.ActualHours, err = e.repo.TimeEntries.SumForProject(ctx, projectID, window); err != nil {
		return out, false, err
	}

	out.OverrunHours = out.ActualHours - out.PlannedHours
	if out.PlannedHours > 0 {
		out.OverrunPercentage = out.OverrunHours / out.PlannedHours * 100
	}
	out.IsOverrun = out.OverrunHours > 0
	return out, true, nil
}

type UtilizationReport struct {
	TeamID                uint      `json:"team_id"`
	TeamName              string    `json:"team_name"`
	WeekStart             time.Time `json:"week_start"`
	MemberCount           int       `json:"team_members_count"`
	AvailableHours        float64   `json:"available_hours"`
	AllocatedHours        float64   `json:"allocated_hours"`
	UtilizationPercentage float64   `json:"utilization_percentage"`
	IsUnderUtilized       bool      `json:"is_under_utilized"`
}

// DetectUnderUtilization measures one week of a team's allocations against
// its capacity. A team with no active members has zero capacity and is
// reported as under-utilized.
func (e *Engine) DetectUnderUtilization(ctx context.Context, teamID uint, weekStart time.Time) (UtilizationReport, bool, error) {
	weekStart = dateOnly(weekStart)
	out := UtilizationReport{TeamID: teamID, WeekStart: weekStart}

	team, err := e.repo.Teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, false, nil
		}
		return out, false, err
	}
	out.TeamName = team.Name

	members, err := e.repo.Members.ListActiveByTeam(ctx, teamID)
	if err != nil {
		return out, false, err
	}
	out.MemberCount = len(members)

	perMember := e.Resolve(HoursPerDay) * e.Resolve(WorkingDaysPerWeek)
	for _, m := range members {
		out.AvailableHours += perMember * m.AllocationPercentage / 100
	}

	if out.AllocatedHours, err = e.repo.Allocations.SumForTeamWeek(ctx, teamID, weekStart); err != nil {
		return out, false, err
	}

	if out.AvailableHours > 0 {
		out.UtilizationPercentage = out.AllocatedHours / out.AvailableHours * 100
	}
	out.IsUnderUtilized = out.UtilizationPercentage < e.Resolve(UnderUtilizationThreshold)
	return out, true, nil
}
