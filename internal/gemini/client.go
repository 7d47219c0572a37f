// Package gemini implements the conversation generator backed by Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/rublebot/internal/config"
	"github.com/edgard/rublebot/internal/database"
)

// Client generates a reply to a chat's conversation history.
type Client struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	maxRetries    int
	retryDelay    time.Duration
}

// NewClient creates a Gemini client with the provided configuration.
// httpClient may be nil, in which case the SDK default is used.
func NewClient(ctx context.Context, cfg config.AIConfig, httpClient *http.Client, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	baseCfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	instruction := cfg.SystemInstruction
	if instruction == "" {
		instruction = DefaultSystemInstruction
	}
	baseCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: instruction}}}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.Model)
	return &Client{
		genaiClient:   gi,
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.Model,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    cfg.RetryDelay,
	}, nil
}

// Generate sends the history (oldest first, ending with the new user turn) and
// returns the model's text.
func (c *Client) Generate(ctx context.Context, history []*database.Message) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("cannot generate a reply without messages")
	}
	c.log.DebugContext(ctx, "Generating reply", "message_count", len(history))

	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		var role genai.Role = genai.RoleUser
		if m.Role == database.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	resp, err := c.generateContentWithRetries(ctx, contents)
	if err != nil {
		return "", err
	}
	return c.extractText(ctx, resp)
}

func (c *Client) generateContentWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		code := 0
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			code = apiErr.Code
		}

		if !retriable(code) || attempt == c.maxRetries {
			break
		}

		c.log.WarnContext(ctx, "Gemini API call failed, retrying", "attempt", attempt+1, "max_retries", c.maxRetries, "code", code, "error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gemini API call cancelled: %w", ctx.Err())
		case <-time.After(c.retryDelay):
		}
	}
	return nil, fmt.Errorf("gemini API call failed: %w", lastErr)
}

func retriable(code int) bool {
	return code == http.StatusInternalServerError || code == http.StatusServiceUnavailable
}

func (c *Client) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		return "", fmt.Errorf("gemini request blocked: %s", reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("gemini returned no content, finish reason: %s", finishReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}
