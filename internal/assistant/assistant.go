// Package assistant is the conversational AI backend the handlers talk to.
// It owns per-chat history, keyed by chat id, and delegates text generation
// to a Generator.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/edgard/rublebot/internal/config"
	"github.com/edgard/rublebot/internal/database"
	"github.com/edgard/rublebot/internal/gemini"
	"github.com/edgard/rublebot/internal/openai"
)

// ErrEmptyQuery is returned when the prompt has no text.
var ErrEmptyQuery = errors.New("query is empty")

// Assistant is the chat-keyed AI backend.
type Assistant interface {
	// ResetChatHistory forgets the conversation of chatID.
	ResetChatHistory(ctx context.Context, chatID int64) error
	// GetChatResponse answers query in the context of chatID's conversation.
	GetChatResponse(ctx context.Context, chatID int64, query string) (string, error)
}

// Generator produces the next assistant turn for a conversation given oldest first.
type Generator interface {
	Generate(ctx context.Context, history []*database.Message) (string, error)
}

type historyAssistant struct {
	store      database.Store
	generator  Generator
	maxHistory int
	timeout    time.Duration
	log        *slog.Logger
}

// New returns an Assistant that keeps history in store and asks generator for replies.
// maxHistory bounds the number of previous turns sent along with each query.
func New(store database.Store, generator Generator, maxHistory int, timeout time.Duration, log *slog.Logger) Assistant {
	return &historyAssistant{
		store:      store,
		generator:  generator,
		maxHistory: maxHistory,
		timeout:    timeout,
		log:        log.With("component", "assistant"),
	}
}

// NewGenerator builds the generator selected by cfg.Provider.
func NewGenerator(ctx context.Context, cfg config.AIConfig, httpClient *http.Client, log *slog.Logger) (Generator, error) {
	switch cfg.Provider {
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg, httpClient, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "openai":
		client, err := openai.New(cfg, httpClient, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

func (a *historyAssistant) ResetChatHistory(ctx context.Context, chatID int64) error {
	removed, err := a.store.DeleteChatMessages(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to reset chat history: %w", err)
	}
	a.log.InfoContext(ctx, "Chat history reset", "chat_id", chatID, "removed", removed)
	return nil
}

func (a *historyAssistant) GetChatResponse(ctx context.Context, chatID int64, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	history, err := a.store.GetRecentMessages(ctx, chatID, a.maxHistory)
	if err != nil {
		return "", fmt.Errorf("failed to load chat history: %w", err)
	}

	userTurn := &database.Message{
		ChatID:    chatID,
		Role:      database.RoleUser,
		Content:   query,
		CreatedAt: time.Now().UTC(),
	}
	reply, err := a.generator.Generate(ctx, append(history, userTurn))
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	assistantTurn := &database.Message{
		ChatID:    chatID,
		Role:      database.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.SaveMessages(ctx, userTurn, assistantTurn); err != nil {
		// The reply is still useful; the turn is just missing from history.
		a.log.ErrorContext(ctx, "Failed to save conversation turn", "chat_id", chatID, "error", err)
	}

	a.log.DebugContext(ctx, "Generated reply", "chat_id", chatID, "history", len(history), "reply_len", len(reply))
	return reply, nil
}
