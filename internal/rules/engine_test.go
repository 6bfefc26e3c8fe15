package rules_test

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/prabhucts/pmo/internal/config"
	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/repository"
	"github.com/prabhucts/pmo/internal/rules"
	"github.com/prabhucts/pmo/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newEngine(t *testing.T, db *gorm.DB) *rules.Engine {
	t.Helper()

	e, err := rules.NewEngine(context.Background(), repository.New(db), rules.DefaultTable(config.DefaultRuleDefaults()))
	require.NoError(t, err)
	return e
}

func createRule(t *testing.T, db *gorm.DB, name string, value any, active bool) {
	t.Helper()

	rule := &models.BusinessRule{
		Name:       name,
		RuleType:   models.RuleTypeConversion,
		Parameters: datatypes.JSONMap{rules.ValueKey: value},
		IsActive:   active,
	}
	require.NoError(t, db.Create(rule).Error)
}

func strPtr(s string) *string { return &s }

func TestStoryPointHours_DefaultsAndOverrides(t *testing.T) {
	db := testhelpers.SetupTestDB(t)

	e := newEngine(t, db)
	assert.Equal(t, 13.0, e.StoryPointHours(""))
	assert.Equal(t, 13.0, e.StoryPointHours("Payments"))
	assert.Equal(t, 0.0, e.ConvertStoryPointsToHours(0, "Payments"))

	createRule(t, db, "sp_hours_Payments", 8, true)
	createRule(t, db, "sp_hours_Core", 21, false)
	createRule(t, db, rules.SprintWeeks, "3", true)

	e = newEngine(t, db)
	assert.Equal(t, 8.0, e.StoryPointHours("Payments"))
	assert.Equal(t, 13.0, e.StoryPointHours("Core"), "inactive override is ignored")
	assert.Equal(t, 13.0, e.StoryPointHours("Mobile"))
	assert.Equal(t, 3.0, e.Resolve(rules.SprintWeeks))
	assert.Equal(t, 70.0, e.Resolve(rules.UnderUtilizationThreshold))

	for _, p := range []float64{0, 1, 2.5, 13} {
		assert.Equal(t, p*8, e.ConvertStoryPointsToHours(p, "Payments"))
		assert.Equal(t, p*13, e.ConvertStoryPointsToHours(p, "Mobile"))
	}
}

func TestResolve_IgnoresNonFiniteValues(t *testing.T) {
	db := testhelpers.SetupTestDB(t)

	createRule(t, db, rules.StoryPointHours, "NaN", true)
	createRule(t, db, rules.SprintWeeks, "Inf", true)
	createRule(t, db, rules.HoursPerDay, "-Infinity", true)

	e := newEngine(t, db)
	assert.Equal(t, 13.0, e.StoryPointHours(""))
	assert.Equal(t, 2.0, e.Resolve(rules.SprintWeeks))
	assert.Equal(t, 8.0, e.Resolve(rules.HoursPerDay))
}

func TestTotalHoursForFeature(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	project := testhelpers.CreateTestProject(t, db, "ITPR1", "Alpha")
	feature := testhelpers.CreateTestHierarchy(t, db, project, "E1", "F1")

	testhelpers.CreateTestStory(t, db, models.UserStory{FormattedID: "US1", Name: "a", FeatureID: &feature.ID, Team: "Payments", PlanEstimate: 5})
	testhelpers.CreateTestStory(t, db, models.UserStory{FormattedID: "US2", Name: "b", FeatureID: &feature.ID, Team: "Payments", PlanEstimate: 3})
	testhelpers.CreateTestStory(t, db, models.UserStory{FormattedID: "US3", Name: "c", FeatureID: &feature.ID, Team: "Core", PlanEstimate: 8})
	require.NoError(t, db.Create(&models.Defect{FormattedID: strPtr("DE1"), FeatureFormattedID: "F1", Team: "Payments", PlanEstimate: 2}).Error)
	require.NoError(t, db.Create(&models.Defect{FormattedID: strPtr("DE2"), FeatureFormattedID: "F2", Team: "Payments", PlanEstimate: 10}).Error)

	got, found, err := newEngine(t, db).TotalHoursForFeature(ctx, feature.ID, "Payments")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 8.0, got.UserStorySP)
	assert.Equal(t, 2.0, got.DefectSP)
	assert.Equal(t, 10.0, got.TotalStoryPoints)
	assert.Equal(t, 130.0, got.TotalHours)
}

func TestTotalHoursForFeature_NoCrossTeamLeakage(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	testhelpers.CreateTestStory(t, db, models.UserStory{FormattedID: "US1", Name: "orphan", Team: "Payments", PlanEstimate: 5})
	project := testhelpers.CreateTestProject(t, db, "ITPR1", "Alpha")
	feature := testhelpers.CreateTestHierarchy(t, db, project, "E9", "F9")

	e := newEngine(t, db)

	got, found, err := e.TotalHoursForFeature(ctx, feature.ID, "Core")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.0, got.TotalStoryPoints)

	got, found, err = e.TotalHoursForFeature(ctx, feature.ID, "Payments")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.0, got.TotalStoryPoints)

	got, found, err = e.TotalHoursForFeature(ctx, 9999, "Payments")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0.0, got.TotalStoryPoints)
}

func TestHoursPerWeek(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	testhelpers.CreateTestTeam(t, db, "Payments", 2, 50)
	testhelpers.CreateTestTeam(t, db, "Empty", 0, 100)
	e := newEngine(t, db)

	// 130 / (10 weeks * 2 members * 0.5)
	got, err := e.HoursPerWeek(ctx, 130, "Payments", 0)
	require.NoError(t, err)
	assert.Equal(t, 13.0, got)

	got, err = e.HoursPerWeek(ctx, 130, "Payments", 4)
	require.NoError(t, err)
	assert.Equal(t, 32.5, got)

	got, err = e.HoursPerWeek(ctx, 100, "Payments", 3)
	require.NoError(t, err)
	assert.Equal(t, 33.33, got)

	got, err = e.HoursPerWeek(ctx, 130, "Empty", 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = e.HoursPerWeek(ctx, 130, "Unknown", 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestTeamRallyAllocation(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	_, members := testhelpers.CreateTestTeam(t, db, "Payments", 3, 50)
	require.NoError(t, db.Model(&members[1]).Update("allocation_percentage", 100).Error)
	require.NoError(t, repository.New(db).Members.SetActive(ctx, members[2].ID, false))
	testhelpers.CreateTestTeam(t, db, "Empty", 0, 100)

	e := newEngine(t, db)

	got, err := e.TeamRallyAllocation(ctx, "Payments")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, got, 1e-9)

	got, err = e.TeamRallyAllocation(ctx, "Empty")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = e.TeamRallyAllocation(ctx, "Unknown")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	createRule(t, db, rules.UnknownTeamAllocation, 0.8, true)
	got, err = newEngine(t, db).TeamRallyAllocation(ctx, "Unknown")
	require.NoError(t, err)
	assert.Equal(t, 0.8, got)
}

func seedHours(t *testing.T, db *gorm.DB, project *models.Project, team *models.Team, member models.TeamMember, week time.Time, planned, actual float64) {
	t.Helper()

	if planned > 0 {
		require.NoError(t, db.Create(&models.TeamAllocation{
			TeamID: team.ID, ProjectID: project.ID, TeamMemberID: member.ID, WeekStartDate: week, AllocatedHours: planned,
		}).Error)
	}
	if actual > 0 {
		require.NoError(t, db.Create(&models.TimeEntry{
			TeamMemberID: member.ID, ProjectID: project.ID, WeekStartDate: week, ActualHours: actual,
		}).Error)
	}
}

func TestDetectProjectOverruns(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	project := testhelpers.CreateTestProject(t, db, "ITPR1", "Alpha")
	team, members := testhelpers.CreateTestTeam(t, db, "Payments", 1, 100)
	seedHours(t, db, project, team, members[0], testhelpers.Date(2025, 3, 3), 40, 50)
	seedHours(t, db, project, team, members[0], testhelpers.Date(2025, 3, 17), 40, 30)
	require.NoError(t, db.Create(&models.Sprint{
		Name: "2025.S1", StartDate: testhelpers.Date(2025, 3, 3), EndDate: testhelpers.Date(2025, 3, 14),
	}).Error)

	e := newEngine(t, db)

	all, found, err := e.DetectProjectOverruns(ctx, project.ID, "")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ITPR1", all.ITPRCode)
	assert.Equal(t, 80.0, all.PlannedHours)
	assert.Equal(t, 80.0, all.ActualHours)
	assert.Equal(t, 0.0, all.OverrunHours)
	assert.False(t, all.IsOverrun, "equal hours are not an overrun")

	sprint, found, err := e.DetectProjectOverruns(ctx, project.ID, "2025.S1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 40.0, sprint.PlannedHours)
	assert.Equal(t, 50.0, sprint.ActualHours)
	assert.Equal(t, 10.0, sprint.OverrunHours)
	assert.Equal(t, 25.0, sprint.OverrunPercentage)
	assert.True(t, sprint.IsOverrun)

	unknownSprint, _, err := e.DetectProjectOverruns(ctx, project.ID, "2030.S9")
	require.NoError(t, err)
	assert.Equal(t, 80.0, unknownSprint.PlannedHours)

	_, found, err = e.DetectProjectOverruns(ctx, 9999, "")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDetectProjectOverruns_ZeroPlanned(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	project := testhelpers.CreateTestProject(t, db, "ITPR2", "Beta")
	team, members := testhelpers.CreateTestTeam(t, db, "Core", 1, 100)
	seedHours(t, db, project, team, members[0], testhelpers.Date(2025, 3, 3), 0, 12)

	got, found, err := newEngine(t, db).DetectProjectOverruns(ctx, project.ID, "")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0.0, got.PlannedHours)
	assert.Equal(t, 12.0, got.OverrunHours)
	assert.Equal(t, 0.0, got.OverrunPercentage)
	assert.True(t, got.IsOverrun)
}

func TestDetectUnderUtilization(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	project := testhelpers.CreateTestProject(t, db, "ITPR1", "Alpha")
	team, members := testhelpers.CreateTestTeam(t, db, "Payments", 3, 100)
	require.NoError(t, repository.New(db).Members.SetActive(ctx, members[2].ID, false))

	week := testhelpers.Date(2025, 3, 3)
	seedHours(t, db, project, team, members[0], week, 20, 0)
	seedHours(t, db, project, team, members[1], week, 20, 0)
	seedHours(t, db, project, team, members[0], testhelpers.Date(2025, 3, 10), 35, 0)
	seedHours(t, db, project, team, members[1], testhelpers.Date(2025, 3, 10), 35, 0)

	e := newEngine(t, db)

	got, found, err := e.DetectUnderUtilization(ctx, team.ID, week)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, got.MemberCount)
	assert.Equal(t, 80.0, got.AvailableHours)
	assert.Equal(t, 40.0, got.AllocatedHours)
	assert.Equal(t, 50.0, got.UtilizationPercentage)
	assert.True(t, got.IsUnderUtilized)

	got, _, err = e.DetectUnderUtilization(ctx, team.ID, testhelpers.Date(2025, 3, 10))
	require.NoError(t, err)
	assert.Equal(t, 87.5, got.UtilizationPercentage)
	assert.False(t, got.IsUnderUtilized)

	_, found, err = e.DetectUnderUtilization(ctx, 9999, week)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDetectUnderUtilization_NoMembers(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	team, _ := testhelpers.CreateTestTeam(t, db, "Empty", 0, 100)

	got, found, err := newEngine(t, db).DetectUnderUtilization(ctx, team.ID, testhelpers.Date(2025, 3, 3))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0.0, got.AvailableHours)
	assert.Equal(t, 0.0, got.UtilizationPercentage)
	assert.True(t, got.IsUnderUtilized)
}

func TestForecastProjectCompletion_NoStories(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	end := testhelpers.Date(2025, 1, 1)
	project := &models.Project{ITPRCode: "ITPR1", Name: "Alpha", EndDate: &end}
	require.NoError(t, db.Create(project).Error)

	got, found, err := newEngine(t, db).ForecastProjectCompletion(ctx, project.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0.0, got.RemainingStoryPoints)
	assert.Equal(t, 0.0, got.AverageVelocity)
	assert.True(t, math.IsInf(got.EstimatedRemainingSprints, 1))
	assert.Nil(t, got.EstimatedCompletionDate)
	assert.Equal(t, rules.ConfidenceLow, got.ConfidenceLevel)
	assert.Contains(t, got.Risks, rules.RiskLowVelocity)
	assert.NotContains(t, got.Risks, rules.RiskBeyondEndDate)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "estimated_remaining_sprints")
	assert.Nil(t, decoded["estimated_remaining_sprints"])
	assert.Equal(t, "Low", decoded["confidence_level"])
}

func TestForecastProjectCompletion(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	end := testhelpers.Date(2025, 4, 1)
	project := &models.Project{ITPRCode: "ITPR1", Name: "Alpha", EndDate: &end}
	require.NoError(t, db.Create(project).Error)
	feature := testhelpers.CreateTestHierarchy(t, db, project, "E1", "F1")

	stories := []models.UserStory{
		{FormattedID: "US1", Iteration: "2025.S1", State: models.StoryStateAccepted, PlanEstimate: 10},
		{FormattedID: "US2", Iteration: "2025.S2", State: models.StoryStateCompleted, PlanEstimate: 20},
		{FormattedID: "US3", Iteration: "2025.S3", State: models.StoryStateAccepted, PlanEstimate: 30},
		{FormattedID: "US4", Iteration: "2025.S4", State: models.StoryStateAccepted, PlanEstimate: 25},
		{FormattedID: "US5", Iteration: "2025.S4", State: models.StoryStateCompleted, PlanEstimate: 15},
		{FormattedID: "US6", State: models.StoryStateAccepted, PlanEstimate: 50},
		{FormattedID: "US7", Iteration: "2025.S5", State: "In-Progress", PlanEstimate: 40},
		{FormattedID: "US8", State: "Defined", PlanEstimate: 20},
	}
	for _, s := range stories {
		s.Name = s.FormattedID
		s.FeatureID = &feature.ID
		testhelpers.CreateTestStory(t, db, s)
	}
	// Not under the project.
	testhelpers.CreateTestStory(t, db, models.UserStory{FormattedID: "US9", Name: "x", State: "Defined", PlanEstimate: 100})

	require.NoError(t, db.Create(&models.Sprint{
		Name: "2025.S5", StartDate: testhelpers.Date(2025, 3, 3), EndDate: testhelpers.Date(2025, 3, 17), IsActive: true,
	}).Error)

	got, found, err := newEngine(t, db).ForecastProjectCompletion(ctx, project.ID)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, 60.0, got.RemainingStoryPoints)
	// S4=40, S3=30, S2=20
	assert.Equal(t, 30.0, got.AverageVelocity)
	assert.Equal(t, 3, got.VelocitySamples)
	assert.Equal(t, 2.0, got.EstimatedRemainingSprints)
	require.NotNil(t, got.EstimatedCompletionDate)
	assert.Equal(t, "2025-04-14", got.EstimatedCompletionDate.Format(time.DateOnly))
	assert.Equal(t, rules.ConfidenceHigh, got.ConfidenceLevel)
	assert.Equal(t, []string{rules.RiskBeyondEndDate}, got.Risks)
}

func TestForecastProjectCompletion_MediumConfidenceWithoutActiveSprint(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	project := testhelpers.CreateTestProject(t, db, "ITPR1", "Alpha")
	feature := testhelpers.CreateTestHierarchy(t, db, project, "E1", "F1")
	for _, s := range []models.UserStory{
		{FormattedID: "US1", Iteration: "2025.S1", State: models.StoryStateAccepted, PlanEstimate: 4},
		{FormattedID: "US2", Iteration: "2025.S2", State: models.StoryStateAccepted, PlanEstimate: 6},
		{FormattedID: "US3", State: "Defined", PlanEstimate: 30},
	} {
		s.Name = s.FormattedID
		s.FeatureID = &feature.ID
		testhelpers.CreateTestStory(t, db, s)
	}

	got, _, err := newEngine(t, db).ForecastProjectCompletion(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.AverageVelocity)
	assert.Equal(t, 6.0, got.EstimatedRemainingSprints)
	assert.Nil(t, got.EstimatedCompletionDate)
	assert.Equal(t, rules.ConfidenceMedium, got.ConfidenceLevel)
	assert.Equal(t, []string{rules.RiskManySprints, rules.RiskLowVelocity}, got.Risks)

	_, found, err := newEngine(t, db).ForecastProjectCompletion(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClarityAllocation(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	project := testhelpers.CreateTestProject(t, db, "ITPR1", "Alpha")
	feature := testhelpers.CreateTestHierarchy(t, db, project, "E1", "F1")
	_, payments := testhelpers.CreateTestTeam(t, db, "Payments", 2, 50)
	_, core := testhelpers.CreateTestTeam(t, db, "Core", 1, 100)
	testhelpers.CreateTestStory(t, db, models.UserStory{FormattedID: "US1", Name: "a", FeatureID: &feature.ID, Team: "Payments", PlanEstimate: 10})

	weeks := []time.Time{testhelpers.Date(2025, 3, 3), testhelpers.Date(2025, 3, 10)}
	e := newEngine(t, db)

	// 130h / (10 weeks * 2 * 0.5) = 13h/week, at 50% -> 6.5 -> 7
	got, found, err := e.ClarityAllocation(ctx, "ITPR1", payments[0].ID, weeks)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, got.CoreSupport)
	assert.Equal(t, 7.0, got.WeeklyHours)
	assert.Equal(t, map[string]float64{"2025-03-03": 7, "2025-03-10": 7}, got.Weeks)

	got, found, err = e.ClarityAllocation(ctx, "ITPR1", core[0].ID, weeks)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.CoreSupport)
	assert.Equal(t, 5.0, got.WeeklyHours)

	_, found, err = e.ClarityAllocation(ctx, "ITPR404", core[0].ID, weeks)
	require.NoError(t, err)
	assert.False(t, found)
}
