package rules

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"
)

type ClarityAllocation struct {
	ITPRCode    string             `json:"itpr_code"`
	MemberID    uint               `json:"team_member_id"`
	MemberName  string             `json:"member_name"`
	WeeklyHours float64            `json:"weekly_hours"`
	CoreSupport bool               `json:"core_support"`
	Weeks       map[string]float64 `json:"weeks"`
}

// TeamWeeklyEstimate is the hours per week the team needs to deliver its
// story estimates on the project within one program increment.
func (e *Engine) TeamWeeklyEstimate(ctx context.Context, projectID uint, team string) (float64, error) {
	sp, err := e.repo.Stories.SumEstimateByProjectTeam(ctx, projectID, team)
	if err != nil {
		return 0, err
	}
	return e.HoursPerWeek(ctx, e.ConvertStoryPointsToHours(sp, team), team, 0)
}

// ClarityAllocation proposes the hours to book for a member on a project in
// each of the given weeks. Members with no estimated work get the core
// support allowance; any non-zero estimate is rounded to whole hours and
// never below one.
func (e *Engine) ClarityAllocation(ctx context.Context, itprCode string, memberID uint, weeks []time.Time) (ClarityAllocation, bool, error) {
	out := ClarityAllocation{ITPRCode: itprCode, MemberID: memberID, Weeks: map[string]float64{}}

	project, err := e.repo.Projects.FindByCode(ctx, itprCode)
	if err != nil || project == nil {
		return out, false, err
	}
	member, err := e.repo.Members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, false, nil
		}
		return out, false, err
	}
	out.MemberName = member.Name

	var estimate float64
	if member.TeamID != nil {
		team, err := e.repo.Teams.GetByID(ctx, *member.TeamID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return out, false, err
		}
		if team != nil {
			perWeek, err := e.TeamWeeklyEstimate(ctx, project.ID, team.Name)
			if err != nil {
				return out, false, err
			}
			estimate = perWeek * member.AllocationPercentage / 100
		}
	}

	if estimate == 0 {
		estimate = e.Resolve(CoreSupportHours)
		out.CoreSupport = true
	} else {
		estimate = math.Max(1, math.Round(estimate))
	}
	out.WeeklyHours = estimate

	for _, w := range weeks {
		out.Weeks[dateOnly(w).Format(time.DateOnly)] = estimate
	}
	return out, true, nil
}
