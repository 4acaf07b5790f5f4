// Package openai implements the completion service contract on top of the
// OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	defaultModel = openai.GPT4oMini

	// Low temperature keeps the analysis output stable across runs.
	temperature = 0.3
	maxTokens   = 2000

	systemPrompt = "You are a helpful assistant that processes resumes and job descriptions."
)

// Client wraps the OpenAI API behind the Completer contract.
type Client struct {
	api    *openai.Client
	model  string
	logger *zap.Logger
}

// New creates a Client for the given API key and model.
func New(apiKey, model string, logger *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		api:    openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}, nil
}

// Complete sends the prompt as a chat completion and returns the first
// choice's content.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai api returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai api returned empty response")
	}

	c.logger.Debug("openai response received", zap.Int("length", len(content)))

	return content, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}
