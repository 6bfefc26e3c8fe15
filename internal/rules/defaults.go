package rules

import "github.com/prabhucts/pmo/internal/config"

// Rule names the engine reads. Each is a business_rules row whose parameters
// carry a numeric "value".
const (
	StoryPointHours             = "story_point_hours"
	SprintWeeks                 = "sprint_weeks"
	WorkingDaysPerWeek          = "working_days_per_week"
	HoursPerDay                 = "hours_per_day"
	UnderUtilizationThreshold   = "under_utilization_threshold"
	UnknownTeamAllocation       = "unknown_team_allocation"
	SprintsPerIncrement         = "sprints_per_increment"
	VelocityWindow              = "velocity_window"
	ForecastMaxRemainingSprints = "forecast_max_remaining_sprints"
	ForecastMinVelocity         = "forecast_min_velocity"
	CoreSupportHours            = "default_core_support_hours"

	// TeamOverridePrefix + team name overrides story_point_hours for one team.
	TeamOverridePrefix = "sp_hours_"

	ValueKey = "value"
)

// Defaults maps rule names to the value used when the rule is absent or
// inactive.
type Defaults map[string]float64

// DefaultTable is the one place fallback values are declared. The four
// foundational values come from configuration.
func DefaultTable(base config.RuleDefaults) Defaults {
	return Defaults{
		StoryPointHours:             base.StoryPointHours,
		SprintWeeks:                 base.SprintWeeks,
		WorkingDaysPerWeek:          base.WorkingDaysPerWeek,
		HoursPerDay:                 base.HoursPerDay,
		UnderUtilizationThreshold:   70,
		UnknownTeamAllocation:       1.0,
		SprintsPerIncrement:         5,
		VelocityWindow:              3,
		ForecastMaxRemainingSprints: 5,
		ForecastMinVelocity:         20,
		CoreSupportHours:            5,
	}
}
