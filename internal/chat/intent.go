package chat

import (
	"context"
	"regexp"
	"strings"

	"github.com/prabhucts/pmo/internal/extract"
)

type Intent string

const (
	IntentProjectOverrun   Intent = "project_overrun"
	IntentUnderUtilization Intent = "under_utilization"
	IntentTeamHours        Intent = "team_hours"
	IntentForecast         Intent = "forecast"
	IntentSprintStatus     Intent = "sprint_status"
	IntentProjectInfo      Intent = "project_info"
	IntentTeamInfo         Intent = "team_info"
	IntentGeneral          Intent = "general"
)

func (i Intent) Valid() bool {
	switch i {
	case IntentProjectOverrun, IntentUnderUtilization, IntentTeamHours, IntentForecast,
		IntentSprintStatus, IntentProjectInfo, IntentTeamInfo, IntentGeneral:
		return true
	}
	return false
}

// Parameter keys a classifier may fill.
const (
	ParamProject = "project"
	ParamSprint  = "sprint"
)

type Classification struct {
	Intent     Intent
	Parameters map[string]string
}

// Classifier maps a free-text message to an intent. It never fails; an
// unrecognized message is IntentGeneral.
type Classifier interface {
	Classify(ctx context.Context, message string) Classification
}

var sprintRe = regexp.MustCompile(`(?i)\b\d{4}\.S\d+\b`)

// keywordRules are checked in order; the first hit wins.
var keywordRules = []struct {
	intent Intent
	words  []string
}{
	{IntentProjectOverrun, []string{"overrun", "over budget", "exceeded"}},
	{IntentUnderUtilization, []string{"under-util", "underutil", "capacity", "idle"}},
	{IntentTeamHours, []string{"hours", "timesheet", "time entry", "logging"}},
	{IntentForecast, []string{"forecast", "completion", "when will", "estimate"}},
	{IntentSprintStatus, []string{"sprint", "iteration"}},
	{IntentProjectInfo, []string{"project", "itpr"}},
	{IntentTeamInfo, []string{"team", "member"}},
}

type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, message string) Classification {
	lower := strings.ToLower(message)

	out := Classification{Intent: IntentGeneral, Parameters: Parameters(message)}
	for _, r := range keywordRules {
		if containsAny(lower, r.words) {
			out.Intent = r.intent
			break
		}
	}
	return out
}

// Parameters pulls an ITPR code and a sprint name out of message.
func Parameters(message string) map[string]string {
	params := map[string]string{}
	if code := extract.ITPRCode(strings.ToUpper(message)); code != "" {
		params[ParamProject] = code
	}
	if sprint := sprintRe.FindString(message); sprint != "" {
		params[ParamSprint] = strings.ToUpper(sprint)
	}
	return params
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
