package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/repository"
	"github.com/prabhucts/pmo/internal/rules"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const historyLimit = 200

type Reply struct {
	Response  string `json:"response"`
	Intent    Intent `json:"intent"`
	Data      any    `json:"data"`
	SessionID string `json:"session_id"`
}

type Service struct {
	repo       *repository.Repository
	defaults   rules.Defaults
	classifier Classifier
	llm        Completer
	log        *zap.Logger
	now        func() time.Time
}

// New builds the dispatcher. A nil llm selects keyword classification and a
// canned answer for general questions.
func New(repo *repository.Repository, defaults rules.Defaults, llm Completer, log *zap.Logger) *Service {
	var classifier Classifier = KeywordClassifier{}
	if llm != nil {
		classifier = &LLMClassifier{LLM: llm, Fallback: classifier, Log: log}
	}
	return &Service{
		repo:       repo,
		defaults:   defaults,
		classifier: classifier,
		llm:        llm,
		log:        log,
		now:        time.Now,
	}
}

type answer struct {
	text string
	data any
}

// Process answers one message. An empty sessionID starts a new session.
func (s *Service) Process(ctx context.Context, message, sessionID string) (*Reply, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	c := s.classifier.Classify(ctx, message)

	engine, err := rules.NewEngine(ctx, s.repo, s.defaults)
	if err != nil {
		return nil, err
	}

	var ans answer
	switch c.Intent {
	case IntentProjectOverrun:
		ans, err = s.projectOverrun(ctx, engine, c.Parameters)
	case IntentUnderUtilization:
		ans, err = s.underUtilization(ctx, engine)
	case IntentTeamHours:
		ans, err = s.teamHours(ctx)
	case IntentForecast:
		ans, err = s.forecast(ctx, engine, c.Parameters)
	case IntentSprintStatus:
		ans, err = s.sprintStatus(ctx, c.Parameters)
	case IntentProjectInfo:
		ans, err = s.projectInfo(ctx)
	case IntentTeamInfo:
		ans, err = s.teamInfo(ctx)
	default:
		ans = s.general(ctx, message)
	}
	if err != nil {
		s.log.Error("chat handler failed", zap.String("intent", string(c.Intent)), zap.Error(err))
		return nil, err
	}
	if ans.data == nil {
		ans.data = map[string]any{}
	}

	s.saveHistory(ctx, sessionID, message, ans, c.Intent)

	return &Reply{
		Response:  ans.text,
		Intent:    c.Intent,
		Data:      ans.data,
		SessionID: sessionID,
	}, nil
}

func (s *Service) History(ctx context.Context, sessionID string) ([]models.ChatHistory, error) {
	return s.repo.Chat.ListBySession(ctx, sessionID, historyLimit)
}

// saveHistory is best effort; the reply is returned even when it fails.
func (s *Service) saveHistory(ctx context.Context, sessionID, message string, ans answer, intent Intent) {
	raw, err := json.Marshal(ans.data)
	if err != nil {
		s.log.Warn("chat context not encodable", zap.Error(err))
		raw = []byte("{}")
	}
	h := &models.ChatHistory{
		SessionID:   sessionID,
		UserMessage: message,
		BotResponse: ans.text,
		Intent:      string(intent),
		Context:     datatypes.JSON(raw),
	}
	if err := s.repo.Chat.Create(ctx, h); err != nil {
		s.log.Error("saving chat history failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}
