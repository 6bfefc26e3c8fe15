package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prabhucts/pmo/internal/config"
	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/repository"
	"github.com/prabhucts/pmo/internal/rules"
	"github.com/prabhucts/pmo/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type completerFunc func(system, user string) (string, error)

func (f completerFunc) Complete(_ context.Context, system, user string, _ float32, _ int) (string, error) {
	return f(system, user)
}

func newService(t *testing.T, db *gorm.DB, llm Completer) *Service {
	t.Helper()

	s := New(repository.New(db), rules.DefaultTable(config.DefaultRuleDefaults()), llm, zap.NewNop())
	s.now = func() time.Time { return time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestKeywordClassifier(t *testing.T) {
	cases := []struct {
		msg    string
		intent Intent
		params map[string]string
	}{
		{"Which projects are over budget?", IntentProjectOverrun, map[string]string{}},
		{"overrun for itpr100 in 2025.s1", IntentProjectOverrun, map[string]string{ParamProject: "ITPR100", ParamSprint: "2025.S1"}},
		{"who is idle this week", IntentUnderUtilization, map[string]string{}},
		{"has everyone filled the timesheet", IntentTeamHours, map[string]string{}},
		{"When will ITPR7 finish?", IntentForecast, map[string]string{ParamProject: "ITPR7"}},
		{"sprint progress", IntentSprintStatus, map[string]string{}},
		{"list projects", IntentProjectInfo, map[string]string{}},
		{"how many members per team", IntentTeamInfo, map[string]string{}},
		{"hello", IntentGeneral, map[string]string{}},
	}

	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			got := KeywordClassifier{}.Classify(context.Background(), tc.msg)
			assert.Equal(t, tc.intent, got.Intent)
			assert.Equal(t, tc.params, got.Parameters)
		})
	}
}

func TestLLMClassifier(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes fenced reply", func(t *testing.T) {
		c := &LLMClassifier{
			LLM: completerFunc(func(_, _ string) (string, error) {
				return "```json\n{\"intent\": \"forecast\", \"parameters\": {\"project\": \"ITPR9\", \"n\": 3}}\n```", nil
			}),
			Fallback: KeywordClassifier{},
			Log:      zap.NewNop(),
		}
		got := c.Classify(ctx, "anything")
		assert.Equal(t, IntentForecast, got.Intent)
		assert.Equal(t, map[string]string{ParamProject: "ITPR9"}, got.Parameters)
	})

	t.Run("unknown intent becomes general", func(t *testing.T) {
		c := &LLMClassifier{
			LLM:      completerFunc(func(_, _ string) (string, error) { return `{"intent":"data_query"}`, nil }),
			Fallback: KeywordClassifier{},
			Log:      zap.NewNop(),
		}
		assert.Equal(t, IntentGeneral, c.Classify(ctx, "sprint?").Intent)
	})

	t.Run("falls back to keywords", func(t *testing.T) {
		failing := &LLMClassifier{
			LLM:      completerFunc(func(_, _ string) (string, error) { return "", errors.New("rate limited") }),
			Fallback: KeywordClassifier{},
			Log:      zap.NewNop(),
		}
		assert.Equal(t, IntentSprintStatus, failing.Classify(ctx, "sprint status").Intent)

		garbled := &LLMClassifier{
			LLM:      completerFunc(func(_, _ string) (string, error) { return "project_overrun", nil }),
			Fallback: KeywordClassifier{},
			Log:      zap.NewNop(),
		}
		assert.Equal(t, IntentTeamInfo, garbled.Classify(ctx, "team list").Intent)
	})
}

func TestService_ProjectOverrunAndHistory(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	project := testhelpers.CreateTestProject(t, db, "ITPR1", "Alpha")
	team, members := testhelpers.CreateTestTeam(t, db, "Payments", 1, 100)
	week := testhelpers.Date(2025, 3, 3)
	require.NoError(t, db.Create(&models.TeamAllocation{
		TeamID: team.ID, ProjectID: project.ID, TeamMemberID: members[0].ID, WeekStartDate: week, AllocatedHours: 40,
	}).Error)
	require.NoError(t, db.Create(&models.TimeEntry{
		TeamMemberID: members[0].ID, ProjectID: project.ID, WeekStartDate: week, ActualHours: 50,
	}).Error)

	s := newService(t, db, nil)

	reply, err := s.Process(ctx, "Is ITPR1 overrun?", "")
	require.NoError(t, err)
	assert.Equal(t, IntentProjectOverrun, reply.Intent)
	assert.Contains(t, reply.Response, "Project Overrun Detected")
	assert.Contains(t, reply.Response, "Overrun: 10.0 hours (25.0%)")
	_, err = uuid.Parse(reply.SessionID)
	assert.NoError(t, err, "a new session id is generated")

	all, err := s.Process(ctx, "any overruns?", reply.SessionID)
	require.NoError(t, err)
	assert.Contains(t, all.Response, "Found 1 projects with overruns")

	missing, err := s.Process(ctx, "overrun on ITPR404", reply.SessionID)
	require.NoError(t, err)
	assert.Contains(t, missing.Response, "couldn't find project ITPR404")

	history, err := s.History(ctx, reply.SessionID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "Is ITPR1 overrun?", history[0].UserMessage)
	assert.Equal(t, string(IntentProjectOverrun), history[0].Intent)
	assert.Contains(t, string(history[0].Context), `"overrun_percentage":25`)
}

func TestService_TeamHoursAndUtilization(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	project := testhelpers.CreateTestProject(t, db, "ITPR1", "Alpha")
	_, members := testhelpers.CreateTestTeam(t, db, "Payments", 2, 100)
	require.NoError(t, db.Create(&models.TimeEntry{
		TeamMemberID: members[0].ID, ProjectID: project.ID, WeekStartDate: testhelpers.Date(2025, 3, 3), ActualHours: 8,
	}).Error)

	s := newService(t, db, nil)

	hours, err := s.Process(ctx, "who logged hours?", "s1")
	require.NoError(t, err)
	assert.Equal(t, IntentTeamHours, hours.Intent)
	assert.Contains(t, hours.Response, "Week of 2025-03-03")
	assert.Contains(t, hours.Response, "Entered: 1 team members")
	assert.Contains(t, hours.Response, "- Payments Member B")

	util, err := s.Process(ctx, "any idle teams", "s1")
	require.NoError(t, err)
	assert.Contains(t, util.Response, "Under-Utilized Teams (< 70% capacity)")
	assert.Contains(t, util.Response, "Payments: 0.0%")
}

func TestService_SprintStatus(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()
	s := newService(t, db, nil)

	none, err := s.Process(ctx, "sprint status", "s1")
	require.NoError(t, err)
	assert.Equal(t, "No active sprint found.", none.Response)

	require.NoError(t, db.Create(&models.Sprint{
		Name: "2025.S1", StartDate: testhelpers.Date(2025, 3, 3), EndDate: testhelpers.Date(2025, 3, 14), IsActive: true,
	}).Error)
	testhelpers.CreateTestStory(t, db, models.UserStory{FormattedID: "US1", Name: "a", Iteration: "2025.S1", PlanEstimate: 3, State: models.StoryStateAccepted})
	testhelpers.CreateTestStory(t, db, models.UserStory{FormattedID: "US2", Name: "b", Iteration: "2025.S1", PlanEstimate: 1})

	got, err := s.Process(ctx, "how is the sprint going", "s1")
	require.NoError(t, err)
	assert.Contains(t, got.Response, "Sprint Status: 2025.S1")
	assert.Contains(t, got.Response, "Completed: 3.0 (75.0%)")
	assert.Contains(t, got.Response, "Period: 2025-03-03 to 2025-03-14")
}

func TestService_ForecastNeedsProject(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	s := newService(t, db, nil)

	got, err := s.Process(context.Background(), "forecast please", "")
	require.NoError(t, err)
	assert.Equal(t, "Please specify a project ITPR code for forecasting.", got.Response)

	testhelpers.CreateTestProject(t, db, "ITPR5", "Five")
	got, err = s.Process(context.Background(), "forecast ITPR5", "")
	require.NoError(t, err)
	assert.Contains(t, got.Response, "Estimated Sprints Remaining: unknown")
	assert.Contains(t, got.Response, rules.RiskLowVelocity)
}

func TestService_General(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()

	offline, err := newService(t, db, nil).Process(ctx, "hello", "")
	require.NoError(t, err)
	assert.Equal(t, IntentGeneral, offline.Intent)
	assert.Equal(t, helpText, offline.Response)

	llm := completerFunc(func(system, _ string) (string, error) {
		if system == intentPrompt {
			return `{"intent":"general","parameters":{}}`, nil
		}
		return "Hi there.", nil
	})
	online, err := newService(t, db, llm).Process(ctx, "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "Hi there.", online.Response)
}
