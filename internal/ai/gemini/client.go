// Package gemini implements the completion service contract on top of the
// Google GenAI API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hirescreen/hirescreen/internal/utils"
)

const (
	defaultModel   = "gemini-2.5-pro"
	initialBackoff = 2 * time.Second
)

// caller abstracts the single GenAI call the generator makes, so retries can
// be tested without the real client.
type caller interface {
	generateContent(ctx context.Context, model, prompt string) (string, error)
}

// Generator wraps the Google GenAI client to provide simple prompt-based
// completions with bounded retries on transient API errors.
type Generator struct {
	caller     caller
	model      string
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

type genaiCaller struct {
	client *genai.Client
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, maxRetries int, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		caller:     &genaiCaller{client: client},
		model:      model,
		maxRetries: maxRetries,
		logger:     logger,
	}, nil
}

// Complete sends the prompt to Gemini and returns the first textual response.
// Transient API failures are retried up to maxRetries with increasing backoff.
func (g *Generator) Complete(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.caller == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	attempts := g.maxRetries + 1
	backoff := g.backoff
	if backoff <= 0 {
		backoff = initialBackoff
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		output, err := g.caller.generateContent(ctx, g.model, prompt)
		if err == nil {
			return output, nil
		}
		lastErr = err

		if !retriable(err) || attempt == attempts {
			break
		}

		g.logger.Warn("gemini call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		if waitErr := utils.WaitFor(ctx, backoff); waitErr != nil {
			return "", fmt.Errorf("generate content: %w", waitErr)
		}
		backoff *= 2
	}

	return "", fmt.Errorf("generate content: %w", lastErr)
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// retriable reports whether the error is a transient API failure worth
// another attempt. Client-side errors other than rate limiting are not.
func retriable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code >= http.StatusInternalServerError || apiErr.Code == http.StatusTooManyRequests
	}
	return false
}

func (c *genaiCaller) generateContent(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}
