// Package rules computes derived planning metrics from the entity store:
// story point conversion, per-feature hour totals, project overruns, team
// utilization and completion forecasts.
//
// Lookups on unknown projects, teams or features are soft misses: the
// operation returns a zero report with found == false and a nil error.
package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Engine holds a snapshot of the active rule set taken at construction.
// Build a new one per request or per generation pass.
type Engine struct {
	repo     *repository.Repository
	defaults Defaults
	params   map[string]datatypes.JSONMap
}

func NewEngine(ctx context.Context, repo *repository.Repository, defaults Defaults) (*Engine, error) {
	active, err := repo.Rules.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load business rules: %w", err)
	}

	params := make(map[string]datatypes.JSONMap, len(active))
	for _, r := range active {
		params[r.Name] = r.Parameters
	}

	return &Engine{repo: repo, defaults: defaults, params: params}, nil
}

// Resolve returns the active rule's value, or the declared default.
func (e *Engine) Resolve(name string) float64 {
	if v, ok := e.lookup(name); ok {
		return v
	}
	return e.defaults[name]
}

func (e *Engine) lookup(name string) (float64, bool) {
	bag, ok := e.params[name]
	if !ok {
		return 0, false
	}
	return numeric(bag[ValueKey])
}

func (e *Engine) StoryPointHours(team string) float64 {
	if team != "" {
		if v, ok := e.lookup(TeamOverridePrefix + team); ok {
			return v
		}
	}
	return e.Resolve(StoryPointHours)
}

func (e *Engine) ConvertStoryPointsToHours(points float64, team string) float64 {
	return points * e.StoryPointHours(team)
}

type FeatureHours struct {
	FeatureID        uint    `json:"feature_id"`
	Team             string  `json:"team"`
	TotalStoryPoints float64 `json:"total_story_points"`
	TotalHours       float64 `json:"total_hours"`
	UserStorySP      float64 `json:"user_story_sp"`
	DefectSP         float64 `json:"defect_sp"`
}

// TotalHoursForFeature adds the team's story estimates under the feature to
// the team's defects carrying the feature's formatted ID.
func (e *Engine) TotalHoursForFeature(ctx context.Context, featureID uint, team string) (FeatureHours, bool, error) {
	out := FeatureHours{FeatureID: featureID, Team: team}

	feature, err := e.repo.Features.GetByID(ctx, featureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, false, nil
		}
		return out, false, err
	}

	storySP, err := e.repo.Stories.SumEstimate(ctx, feature.ID, team)
	if err != nil {
		return out, false, err
	}
	defectSP, err := e.repo.Defects.SumEstimateByFeature(ctx, feature.FormattedID, team)
	if err != nil {
		return out, false, err
	}

	out.UserStorySP = storySP
	out.DefectSP = defectSP
	out.TotalStoryPoints = storySP + defectSP
	out.TotalHours = e.ConvertStoryPointsToHours(out.TotalStoryPoints, team)
	return out, true, nil
}

// HoursPerWeek spreads totalHours over weeks and the team's effective
// headcount. weeks <= 0 means one program increment.
func (e *Engine) HoursPerWeek(ctx context.Context, totalHours float64, team string, weeks float64) (float64, error) {
	if weeks <= 0 {
		weeks = e.Resolve(SprintWeeks) * e.Resolve(SprintsPerIncrement)
	}

	t, err := e.repo.Teams.FindByName(ctx, team)
	if err != nil || t == nil {
		return 0, err
	}
	members, err := e.repo.Members.ListActiveByTeam(ctx, t.ID)
	if err != nil || len(members) == 0 {
		return 0, err
	}

	denom := weeks * float64(len(members)) * averageAllocation(members)
	if denom <= 0 {
		return 0, nil
	}
	return round2(totalHours / denom), nil
}

// TeamRallyAllocation is the mean active-member allocation as a fraction.
// Unknown teams and teams with no active members get the configured
// fallback, full allocation unless overridden.
func (e *Engine) TeamRallyAllocation(ctx context.Context, team string) (float64, error) {
	fallback := clamp01(e.Resolve(UnknownTeamAllocation))

	t, err := e.repo.Teams.FindByName(ctx, team)
	if err != nil {
		return 0, err
	}
	if t == nil {
		return fallback, nil
	}
	members, err := e.repo.Members.ListActiveByTeam(ctx, t.ID)
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return fallback, nil
	}
	return averageAllocation(members), nil
}

func averageAllocation(members []models.TeamMember) float64 {
	if len(members) == 0 {
		return 0
	}
	var sum float64
	for _, m := range members {
		sum += m.AllocationPercentage / 100
	}
	return clamp01(sum / float64(len(members)))
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, finite(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil && finite(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && finite(f)
	}
	return 0, false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of t's ISO week at UTC midnight.
func WeekStart(t time.Time) time.Time {
	day := dateOnly(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
