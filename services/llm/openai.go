package llmsvc

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/trezcool/edutrack/core"
)

var (
	ErrDisabled    = errors.New("llm: disabled")
	ErrEmptyAnswer = errors.New("llm: empty answer")
)

const (
	maxTokens   = 400
	temperature = 0.3
)

// OpenAIClient answers prompts through an OpenAI-compatible chat-completion API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient returns nil when the LLM is disabled or no API key is configured.
func NewOpenAIClient(conf *core.Config) *OpenAIClient {
	ac := conf.Assistant
	if !ac.LLMEnabled || ac.OpenAIKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(ac.OpenAIKey)
	if ac.OpenAIBaseURL != "" {
		cfg.BaseURL = ac.OpenAIBaseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  ac.Model,
	}
}

// Complete sends a system prompt and a user message and returns the first choice.
// Callers bound the call with ctx.
func (c *OpenAIClient) Complete(ctx context.Context, system, message string) (string, error) {
	if c == nil {
		return "", ErrDisabled
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyAnswer
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}
