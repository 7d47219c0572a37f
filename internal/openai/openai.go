// Package openai implements the conversation generator backed by any
// OpenAI-compatible chat completions endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sashabaranov/go-openai"

	"github.com/edgard/rublebot/internal/config"
	"github.com/edgard/rublebot/internal/database"
)

// Client generates chat replies through the chat completions API.
type Client struct {
	openAIClient *openai.Client
	model        string
	temperature  float32
	instruction  string
	maxRetries   int
	retryDelay   time.Duration
	log          *slog.Logger
}

// New creates a new OpenAI client instance with the provided configuration.
// httpClient may be nil, in which case a client with cfg.Timeout is used.
func New(cfg config.AIConfig, httpClient *http.Client, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	openAICfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openAICfg.BaseURL = cfg.BaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	openAICfg.HTTPClient = httpClient

	instruction := cfg.SystemInstruction
	if instruction == "" {
		instruction = DefaultSystemPrompt
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = InitialBackoffDuration
	}

	return &Client{
		openAIClient: openai.NewClientWithConfig(openAICfg),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		instruction:  instruction,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   retryDelay,
		log:          log.With("component", "openai_client"),
	}, nil
}

// Generate sends the system instruction followed by the history (oldest first,
// ending with the new user turn) and returns the first choice's content.
func (c *Client) Generate(ctx context.Context, history []*database.Message) (string, error) {
	if len(history) == 0 {
		return "", ErrNoMessages
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: c.instruction,
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == database.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	var response string
	err := retry.Do(
		func() error {
			resp, err := c.openAIClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:       c.model,
				Messages:    messages,
				Temperature: c.temperature,
			})
			if err != nil {
				return fmt.Errorf("chat completion failed: %w", err)
			}
			if len(resp.Choices) == 0 {
				return ErrNoChoices
			}

			result := strings.TrimSpace(resp.Choices[0].Message.Content)
			if result == "" {
				return ErrEmptyResponse
			}
			response = result
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)+1),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return !isPermanent(err) }),
		retry.OnRetry(func(n uint, err error) {
			c.log.WarnContext(ctx, "OpenAI call failed, retrying", "attempt", n+1, "max_retries", c.maxRetries, "error", err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to complete API request: %w", err)
	}
	return response, nil
}

// isPermanent reports whether retrying err cannot help: 4xx responses other
// than rate limiting, and malformed replies.
func isPermanent(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode < http.StatusInternalServerError &&
			apiErr.HTTPStatusCode != http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode < http.StatusInternalServerError &&
			reqErr.HTTPStatusCode != http.StatusTooManyRequests
	}
	return errors.Is(err, ErrNoChoices) || errors.Is(err, ErrEmptyResponse)
}
