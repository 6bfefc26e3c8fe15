package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prabhucts/pmo/internal/config"
	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/repository"
	"github.com/prabhucts/pmo/internal/rules"
	"github.com/prabhucts/pmo/internal/service"
	"github.com/prabhucts/pmo/internal/tabular"
	"github.com/prabhucts/pmo/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWeekStart(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2025, 3, 5, 15, 30, 0, 0, time.UTC), testhelpers.Date(2025, 3, 3)},
		{testhelpers.Date(2025, 3, 3), testhelpers.Date(2025, 3, 3)},
		{testhelpers.Date(2025, 3, 9), testhelpers.Date(2025, 3, 3)},
		{testhelpers.Date(2025, 1, 1), testhelpers.Date(2024, 12, 30)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, service.WeekStart(tc.in), tc.in.String())
	}
}

func TestInsightService_GenerateAndResolve(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	project := testhelpers.CreateTestProject(t, db, "ITPR1", "Alpha")
	team, members := testhelpers.CreateTestTeam(t, db, "Payments", 1, 100)
	idle, _ := testhelpers.CreateTestTeam(t, db, "Core", 2, 100)

	week := testhelpers.Date(2025, 3, 3)
	require.NoError(t, db.Create(&models.TeamAllocation{
		TeamID: team.ID, ProjectID: project.ID, TeamMemberID: members[0].ID, WeekStartDate: week, AllocatedHours: 40,
	}).Error)
	require.NoError(t, db.Create(&models.TimeEntry{
		TeamMemberID: members[0].ID, ProjectID: project.ID, WeekStartDate: week, ActualHours: 50,
	}).Error)

	repo := repository.New(db)
	svc := service.NewInsightService(repo, zap.NewNop(), rules.DefaultTable(config.DefaultRuleDefaults()))

	res, err := svc.Generate(ctx, time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, week, res.WeekStart)
	assert.Equal(t, 1, res.ByType[models.InsightProjectOverrun])
	assert.Equal(t, 1, res.ByType[models.InsightForecastAlert], "no velocity is a forecast risk")
	assert.Equal(t, 1, res.ByType[models.InsightUnderUtilization], "only the idle team is flagged")
	assert.Equal(t, 3, res.Total())

	overruns, err := svc.List(ctx, repository.InsightFilter{Type: models.InsightProjectOverrun})
	require.NoError(t, err)
	require.Len(t, overruns, 1)
	o := overruns[0]
	assert.Equal(t, "Project Overrun: Alpha", o.Title)
	assert.Equal(t, models.SeverityCritical, o.Severity)
	require.NotNil(t, o.ProjectID)
	assert.Equal(t, project.ID, *o.ProjectID)

	var data map[string]any
	require.NoError(t, json.Unmarshal(o.Data, &data))
	assert.Equal(t, 25.0, data["overrun_percentage"])

	under, err := svc.List(ctx, repository.InsightFilter{Type: models.InsightUnderUtilization})
	require.NoError(t, err)
	require.Len(t, under, 1)
	require.NotNil(t, under[0].TeamID)
	assert.Equal(t, idle.ID, *under[0].TeamID)
	assert.Equal(t, "Team Under-Utilized: Core", under[0].Title)

	resolved, err := svc.Resolve(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)

	open := false
	remaining, err := svc.List(ctx, repository.InsightFilter{Resolved: &open})
	require.NoError(t, err)
	assert.Len(t, remaining, 2)

	_, err = svc.Resolve(ctx, 9999)
	var serr *service.Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, service.ErrorCodeNotFound, serr.Code)
}

func TestInsightService_GenerateEmptyStore(t *testing.T) {
	db := testhelpers.SetupTestDB(t)

	svc := service.NewInsightService(repository.New(db), zap.NewNop(), rules.DefaultTable(config.DefaultRuleDefaults()))
	res, err := svc.Generate(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, res.Total())
}

func TestInsightService_GenerateAfterUnboundedActuals(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()
	repo := repository.New(db)

	tbl, err := tabular.ReadCSV(strings.NewReader(
		"Team,Resource Name (in Clarity),Initiative (Use Dropdown of Current ITPRs),2025-03-03\n" +
			"Payments,Ann Lee,ITPR1 - Alpha,40\n" +
			"Payments,Bob Ray,ITPR1 - Alpha,Inf\n"))
	require.NoError(t, err)

	imported, err := service.NewImportService(repo, zap.NewNop()).Import(ctx, service.ImportActuals, tbl)
	require.NoError(t, err)
	require.True(t, imported.Success, imported.Error)
	assert.Equal(t, 1, imported.RowsProcessed)
	assert.Equal(t, 1, imported.RowsSkipped)

	var entries []models.TimeEntry
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, 40.0, entries[0].ActualHours)

	svc := service.NewInsightService(repo, zap.NewNop(), rules.DefaultTable(config.DefaultRuleDefaults()))
	res, err := svc.Generate(ctx, time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, res.ByType[models.InsightProjectOverrun])
}
