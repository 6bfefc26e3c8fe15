package rules

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/prabhucts/pmo/internal/models"
	"gorm.io/gorm"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

const (
	RiskManySprints   = "High number of remaining sprints"
	RiskLowVelocity   = "Low team velocity"
	RiskBeyondEndDate = "Estimated completion beyond project end date"
)

type ForecastReport struct {
	ProjectID            uint    `json:"project_id"`
	ProjectName          string  `json:"project_name"`
	ITPRCode             string  `json:"itpr_code"`
	RemainingStoryPoints float64 `json:"remaining_story_points"`
	AverageVelocity      float64 `json:"average_velocity"`
	// EstimatedRemainingSprints is +Inf when there is no velocity.
	EstimatedRemainingSprints float64    `json:"estimated_remaining_sprints"`
	EstimatedCompletionDate   *time.Time `json:"estimated_completion_date"`
	VelocitySamples           int        `json:"velocity_samples"`
	ConfidenceLevel           Confidence `json:"confidence_level"`
	Risks                     []string   `json:"risks"`
}

func (r ForecastReport) HasFiniteEstimate() bool {
	return !math.IsInf(r.EstimatedRemainingSprints, 0) && !math.IsNaN(r.EstimatedRemainingSprints)
}

// MarshalJSON writes an unbounded sprint estimate as null.
func (r ForecastReport) MarshalJSON() ([]byte, error) {
	type plain ForecastReport
	out := struct {
		plain
		EstimatedRemainingSprints *float64 `json:"estimated_remaining_sprints"`
	}{plain: plain(r)}
	if r.HasFiniteEstimate() {
		v := r.EstimatedRemainingSprints
		out.EstimatedRemainingSprints = &v
	}
	return json.Marshal(out)
}

// ForecastProjectCompletion projects the remaining work of a project from
// the velocity of its most recent iterations.
func (e *Engine) ForecastProjectCompletion(ctx context.Context, projectID uint) (ForecastReport, bool, error) {
	out := ForecastReport{ProjectID: projectID, ConfidenceLevel: ConfidenceLow, Risks: []string{}}

	project, err := e.repo.Projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, false, nil
		}
		return out, false, err
	}
	out.ProjectName = project.Name
	out.ITPRCode = project.ITPRCode

	stories, err := e.repo.Stories.ListByProject(ctx, projectID)
	if err != nil {
		return out, false, err
	}

	out.RemainingStoryPoints = remainingPoints(stories)
	velocities := recentVelocities(stories, int(e.Resolve(VelocityWindow)))
	out.VelocitySamples = len(velocities)
	out.AverageVelocity = mean(velocities)

	out.EstimatedRemainingSprints = math.Inf(1)
	if out.AverageVelocity > 0 {
		out.EstimatedRemainingSprints = out.RemainingStoryPoints / out.AverageVelocity
	}

	if out.HasFiniteEstimate() {
		current, err := e.repo.Sprints.FindActive(ctx)
		if err != nil {
			return out, false, err
		}
		if current != nil {
			days := int(out.EstimatedRemainingSprints * float64(current.Length()))
			done := current.EndDate.AddDate(0, 0, days)
			out.EstimatedCompletionDate = &done
		}
	}

	switch {
	case out.VelocitySamples >= 3:
		out.ConfidenceLevel = ConfidenceHigh
	case out.VelocitySamples == 2:
		out.ConfidenceLevel = ConfidenceMedium
	}

	if out.EstimatedRemainingSprints > e.Resolve(ForecastMaxRemainingSprints) {
		out.Risks = append(out.Risks, RiskManySprints)
	}
	if out.AverageVelocity < e.Resolve(ForecastMinVelocity) {
		out.Risks = append(out.Risks, RiskLowVelocity)
	}
	if project.EndDate != nil && out.EstimatedCompletionDate != nil && out.EstimatedCompletionDate.After(*project.EndDate) {
		out.Risks = append(out.Risks, RiskBeyondEndDate)
	}

	return out, true, nil
}

func remainingPoints(stories []models.UserStory) float64 {
	var sum float64
	for _, s := range stories {
		if !models.IsDoneState(s.State) {
			sum += s.PlanEstimate
		}
	}
	return sum
}

// recentVelocities returns completed points per iteration for the window
// most recent iterations, newest first. Iteration labels sort
// chronologically as strings.
func recentVelocities(stories []models.UserStory, window int) []float64 {
	byIteration := make(map[string]float64)
	for _, s := range stories {
		if models.IsDoneState(s.State) && s.Iteration != "" {
			byIteration[s.Iteration] += s.PlanEstimate
		}
	}

	iterations := make([]string, 0, len(byIteration))
	for it := range byIteration {
		iterations = append(iterations, it)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(iterations)))
	if window > 0 && len(iterations) > window {
		iterations = iterations[:window]
	}

	out := make([]float64, len(iterations))
	for i, it := range iterations {
		out[i] = byIteration[it]
	}
	return out
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
