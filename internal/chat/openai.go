package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Completer sends one system+user exchange to a language model.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error)
}

type OpenAIClient struct {
	client *openai.Client
	model  string
	log    *zap.Logger
}

func NewOpenAIClient(apiKey, model string, log *zap.Logger) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    log.Named("openai"),
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		c.log.Error("completion failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	c.log.Debug("completion done",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.Choices[0].Message.Content, nil
}

const intentPrompt = `You are an AI assistant for a PMO operations system.
Classify the user's intent into one of these categories:
- project_overrun: Questions about project overruns or budget issues
- under_utilization: Questions about team under-utilization or capacity
- team_hours: Questions about team hour entry or tracking
- forecast: Questions about project forecasting or completion dates
- sprint_status: Questions about sprint status or progress
- project_info: General project information queries
- team_info: General team information queries
- general: General questions or help

Respond with ONLY the intent category and any extracted parameters in JSON format.
Example: {"intent": "project_overrun", "parameters": {"project": "ITPR082135", "sprint": "2026.S1"}}`

// LLMClassifier asks a model for the intent and falls back to Fallback when
// the call fails or the reply cannot be decoded.
type LLMClassifier struct {
	LLM      Completer
	Fallback Classifier
	Log      *zap.Logger
}

type intentReply struct {
	Intent     string         `json:"intent"`
	Parameters map[string]any `json:"parameters"`
}

func (c *LLMClassifier) Classify(ctx context.Context, message string) Classification {
	raw, err := c.LLM.Complete(ctx, intentPrompt, message, 0.3, 200)
	if err != nil {
		c.Log.Warn("intent classification failed, using keywords", zap.Error(err))
		return c.Fallback.Classify(ctx, message)
	}

	var reply intentReply
	if err := json.Unmarshal([]byte(stripFence(raw)), &reply); err != nil {
		c.Log.Warn("undecodable intent reply, using keywords", zap.String("reply", raw), zap.Error(err))
		return c.Fallback.Classify(ctx, message)
	}

	out := Classification{Intent: Intent(reply.Intent), Parameters: map[string]string{}}
	if !out.Intent.Valid() {
		out.Intent = IntentGeneral
	}
	for k, v := range reply.Parameters {
		if s, ok := v.(string); ok && s != "" {
			out.Parameters[k] = s
		}
	}
	return out
}

// stripFence removes a markdown code fence around a JSON reply.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
