package chat

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/rules"
	"go.uber.org/zap"
)

const (
	maxListedOverruns = 5
	maxListedProjects = 10
	maxListedMembers  = 10
)

const helpText = "I can help you with:\n" +
	"- Project overruns\n" +
	"- Team under-utilization\n" +
	"- Hour entry tracking\n" +
	"- Project forecasting\n" +
	"- Sprint status\n\n" +
	"What would you like to know?"

const generalPrompt = `You are an AI assistant for a PMO operations system.
You help project managers understand their data and make informed decisions.
Be helpful, concise, and professional.`

func (s *Service) projectOverrun(ctx context.Context, e *rules.Engine, params map[string]string) (answer, error) {
	sprint := params[ParamSprint]

	if code := params[ParamProject]; code != "" {
		p, err := s.repo.Projects.FindByCode(ctx, code)
		if err != nil {
			return answer{}, err
		}
		if p == nil {
			return answer{text: fmt.Sprintf("I couldn't find project %s. Please check the ITPR code.", code)}, nil
		}
		r, _, err := e.DetectProjectOverruns(ctx, p.ID, sprint)
		if err != nil {
			return answer{}, err
		}

		var b strings.Builder
		if r.IsOverrun {
			b.WriteString("**Project Overrun Detected**\n\n")
			fmt.Fprintf(&b, "Project: %s (%s)\n", r.ProjectName, r.ITPRCode)
			fmt.Fprintf(&b, "Planned Hours: %.1f\n", r.PlannedHours)
			fmt.Fprintf(&b, "Actual Hours: %.1f\n", r.ActualHours)
			fmt.Fprintf(&b, "Overrun: %.1f hours (%.1f%%)\n", r.OverrunHours, r.OverrunPercentage)
			if sprint != "" {
				fmt.Fprintf(&b, "Sprint: %s\n", sprint)
			}
		} else {
			fmt.Fprintf(&b, "Project %s is within planned hours. Planned: %.1f, Actual: %.1f",
				r.ProjectName, r.PlannedHours, r.ActualHours)
		}
		return answer{text: b.String(), data: r}, nil
	}

	projects, err := s.repo.Projects.ListByStatus(ctx, models.ProjectStatusActive)
	if err != nil {
		return answer{}, err
	}
	overruns := []rules.OverrunReport{}
	for _, p := range projects {
		r, found, err := e.DetectProjectOverruns(ctx, p.ID, sprint)
		if err != nil {
			return answer{}, err
		}
		if found && r.IsOverrun {
			overruns = append(overruns, r)
		}
	}

	data := map[string]any{"overruns": overruns}
	if len(overruns) == 0 {
		return answer{text: "Great news! No projects are currently showing overruns.", data: data}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Found %d projects with overruns:**\n\n", len(overruns))
	for i, r := range overruns {
		if i == maxListedOverruns {
			fmt.Fprintf(&b, "\n...and %d more", len(overruns)-maxListedOverruns)
			break
		}
		fmt.Fprintf(&b, "- %s (%s): +%.1f hours (%.1f%%)\n", r.ProjectName, r.ITPRCode, r.OverrunHours, r.OverrunPercentage)
	}
	return answer{text: b.String(), data: data}, nil
}

func (s *Service) underUtilization(ctx context.Context, e *rules.Engine) (answer, error) {
	teams, err := s.repo.Teams.List(ctx)
	if err != nil {
		return answer{}, err
	}
	week := rules.WeekStart(s.now())
	threshold := e.Resolve(rules.UnderUtilizationThreshold)

	under := []rules.UtilizationReport{}
	for _, t := range teams {
		r, found, err := e.DetectUnderUtilization(ctx, t.ID, week)
		if err != nil {
			return answer{}, err
		}
		if found && r.IsUnderUtilized {
			under = append(under, r)
		}
	}

	data := map[string]any{"under_utilized": under}
	if len(under) == 0 {
		return answer{text: fmt.Sprintf("All teams are well-utilized (>= %.0f%% capacity).", threshold), data: data}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Under-Utilized Teams (< %.0f%% capacity):**\n\n", threshold)
	for _, r := range under {
		fmt.Fprintf(&b, "- %s: %.1f%% (%.1f/%.1f hours)\n", r.TeamName, r.UtilizationPercentage, r.AllocatedHours, r.AvailableHours)
	}
	return answer{text: b.String(), data: data}, nil
}

func (s *Service) teamHours(ctx context.Context) (answer, error) {
	week := rules.WeekStart(s.now())

	members, err := s.repo.Members.ListActive(ctx)
	if err != nil {
		return answer{}, err
	}
	ids, err := s.repo.TimeEntries.MemberIDsForWeek(ctx, week)
	if err != nil {
		return answer{}, err
	}
	entered := make(map[uint]bool, len(ids))
	for _, id := range ids {
		entered[id] = true
	}

	with, without := []string{}, []string{}
	for _, m := range members {
		if entered[m.ID] {
			with = append(with, m.Name)
		} else {
			without = append(without, m.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Hour Entry Status (Week of %s):**\n\n", week.Format(time.DateOnly))
	fmt.Fprintf(&b, "Entered: %d team members\n", len(with))
	fmt.Fprintf(&b, "Not Entered: %d team members\n", len(without))
	if len(without) > 0 && len(without) <= maxListedMembers {
		b.WriteString("\n**Members who haven't entered hours:**\n")
		for _, name := range without {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}

	return answer{text: b.String(), data: map[string]any{
		"week_start":    week.Format(time.DateOnly),
		"with_hours":    with,
		"without_hours": without,
	}}, nil
}

func (s *Service) forecast(ctx context.Context, e *rules.Engine, params map[string]string) (answer, error) {
	code := params[ParamProject]
	if code == "" {
		return answer{text: "Please specify a project ITPR code for forecasting."}, nil
	}
	p, err := s.repo.Projects.FindByCode(ctx, code)
	if err != nil {
		return answer{}, err
	}
	if p == nil {
		return answer{text: fmt.Sprintf("I couldn't find project %s.", code)}, nil
	}

	f, _, err := e.ForecastProjectCompletion(ctx, p.ID)
	if err != nil {
		return answer{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Forecast for %s (%s):**\n\n", f.ProjectName, f.ITPRCode)
	fmt.Fprintf(&b, "Remaining Story Points: %.1f\n", f.RemainingStoryPoints)
	fmt.Fprintf(&b, "Average Velocity: %.1f SP/sprint\n", f.AverageVelocity)
	if math.IsInf(f.EstimatedRemainingSprints, 1) {
		b.WriteString("Estimated Sprints Remaining: unknown (no velocity)\n")
	} else {
		fmt.Fprintf(&b, "Estimated Sprints Remaining: %.1f\n", f.EstimatedRemainingSprints)
	}
	if f.EstimatedCompletionDate != nil {
		fmt.Fprintf(&b, "Estimated Completion: %s\n", f.EstimatedCompletionDate.Format(time.DateOnly))
	}
	fmt.Fprintf(&b, "Confidence Level: %s\n", f.ConfidenceLevel)
	if len(f.Risks) > 0 {
		b.WriteString("\n**Risks:**\n")
		for _, r := range f.Risks {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return answer{text: b.String(), data: f}, nil
}

func (s *Service) sprintStatus(ctx context.Context, params map[string]string) (answer, error) {
	var (
		sp  *models.Sprint
		err error
	)
	if name := params[ParamSprint]; name != "" {
		sp, err = s.repo.Sprints.FindByName(ctx, name)
	} else {
		sp, err = s.repo.Sprints.FindActive(ctx)
	}
	if err != nil {
		return answer{}, err
	}
	if sp == nil {
		return answer{text: "No active sprint found."}, nil
	}

	stories, err := s.repo.Stories.ListByIteration(ctx, sp.Name)
	if err != nil {
		return answer{}, err
	}
	var total, completed float64
	for _, st := range stories {
		total += st.PlanEstimate
		if models.IsDoneState(st.State) {
			completed += st.PlanEstimate
		}
	}
	var pct float64
	if total > 0 {
		pct = completed / total * 100
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Sprint Status: %s**\n\n", sp.Name)
	fmt.Fprintf(&b, "Period: %s to %s\n", sp.StartDate.Format(time.DateOnly), sp.EndDate.Format(time.DateOnly))
	fmt.Fprintf(&b, "Total Story Points: %.1f\n", total)
	fmt.Fprintf(&b, "Completed: %.1f (%.1f%%)\n", completed, pct)
	fmt.Fprintf(&b, "Remaining: %.1f\n", total-completed)
	fmt.Fprintf(&b, "User Stories: %d\n", len(stories))

	return answer{text: b.String(), data: map[string]any{
		"sprint":       sp.Name,
		"total_sp":     total,
		"completed_sp": completed,
		"remaining_sp": total - completed,
	}}, nil
}

func (s *Service) projectInfo(ctx context.Context) (answer, error) {
	projects, err := s.repo.Projects.ListByStatus(ctx, models.ProjectStatusActive)
	if err != nil {
		return answer{}, err
	}
	if len(projects) > maxListedProjects {
		projects = projects[:maxListedProjects]
	}

	codes := make([]string, 0, len(projects))
	var b strings.Builder
	fmt.Fprintf(&b, "**Active Projects (%d):**\n\n", len(projects))
	for _, p := range projects {
		codes = append(codes, p.ITPRCode)
		fmt.Fprintf(&b, "- %s (%s)\n", p.Name, p.ITPRCode)
		if p.Owner != "" {
			fmt.Fprintf(&b, "  Owner: %s\n", p.Owner)
		}
	}
	return answer{text: b.String(), data: map[string]any{"projects": codes}}, nil
}

func (s *Service) teamInfo(ctx context.Context) (answer, error) {
	teams, err := s.repo.Teams.List(ctx)
	if err != nil {
		return answer{}, err
	}

	counts := make(map[string]int, len(teams))
	var b strings.Builder
	fmt.Fprintf(&b, "**Teams (%d):**\n\n", len(teams))
	for _, t := range teams {
		members, err := s.repo.Members.ListActiveByTeam(ctx, t.ID)
		if err != nil {
			return answer{}, err
		}
		counts[t.Name] = len(members)
		fmt.Fprintf(&b, "- %s: %d members\n", t.Name, len(members))
	}
	return answer{text: b.String(), data: map[string]any{"members_by_team": counts}}, nil
}

func (s *Service) general(ctx context.Context, message string) answer {
	if s.llm == nil {
		return answer{text: helpText}
	}
	text, err := s.llm.Complete(ctx, generalPrompt, message, 0.7, 500)
	if err != nil {
		s.log.Warn("general answer failed", zap.Error(err))
		return answer{text: "I'm here to help with PMO insights. What would you like to know?"}
	}
	return answer{text: text}
}
