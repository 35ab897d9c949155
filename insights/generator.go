// Package insights turns pre-aggregated energy numbers into short
// natural-language commentary using an OpenAI-compatible chat endpoint.
package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when no text could be produced.
var ErrUnavailable = errors.New("insight generator unavailable")

const systemMessage = "You are an energy efficiency assistant for a smart home. " +
	"Answer in at most five short sentences using only the numbers you are given."

// TextGenerator produces commentary for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Fallback is the text shown in place of a generated insight.
func Fallback(err error) string {
	reason := "unknown error"
	if err != nil {
		reason = strings.TrimPrefix(err.Error(), ErrUnavailable.Error()+": ")
	}
	return "AI insights not available: " + reason
}

// Config holds configuration for creating an OpenAI-compatible generator.
type Config struct {
	BaseURL string // e.g. "https://api.mistral.ai/v1"
	Model   string
	APIKey  string
	Timeout time.Duration
}

// OpenAIGenerator talks to any endpoint implementing the OpenAI chat API.
type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOpenAIGenerator creates a generator for cfg.
func NewOpenAIGenerator(cfg Config, logger *zap.Logger) (*OpenAIGenerator, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &OpenAIGenerator{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.Named("insights"),
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		g.logger.Error("insight request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("%w: %s", ErrUnavailable, classify(err))
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	g.logger.Debug("insight request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func classify(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return "authentication failed"
		case 429:
			return "rate limited"
		}
		return fmt.Sprintf("provider error (status %d)", apiErr.HTTPStatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return err.Error()
}

// Disabled is used when no generator has been configured.
type Disabled struct {
	Reason string
}

func (d Disabled) Generate(context.Context, string) (string, error) {
	reason := d.Reason
	if reason == "" {
		reason = "no language model configured"
	}
	return "", fmt.Errorf("%w: %s", ErrUnavailable, reason)
}
