// Package logger provides structured logging for the bot.
// It uses Go's slog package with configurable levels and formats.
package logger

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/rublebot/internal/metrics"
)

// NewLogger creates a new slog Logger with the specified level and format.
// If jsonOutput is true, logs will be formatted as JSON, otherwise as text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(levelStr),
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a config level name to a slog.Level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Middleware creates a logging middleware for the Telegram bot.
// It logs information about incoming updates and counts them by type.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()

			logEntry := log.With("update_id", update.ID)
			updateType := "other"

			switch {
			case update.Message != nil:
				updateType = "message"
				var userID int64
				if update.Message.From != nil {
					userID = update.Message.From.ID
				}
				logEntry = logEntry.With(
					"message_id", update.Message.ID,
					"chat_id", update.Message.Chat.ID,
					"chat_type", update.Message.Chat.Type,
					"user_id", userID,
					"text_preview", truncateString(update.Message.Text, 50),
				)
			case update.InlineQuery != nil:
				updateType = "inline_query"
				var userID int64
				if update.InlineQuery.From != nil {
					userID = update.InlineQuery.From.ID
				}
				logEntry = logEntry.With(
					"inline_query_id", update.InlineQuery.ID,
					"user_id", userID,
					"chat_type", update.InlineQuery.ChatType,
					"query_preview", truncateString(update.InlineQuery.Query, 50),
				)
			}
			logEntry = logEntry.With("update_type", updateType)
			metrics.Global().UpdatesTotal.WithLabelValues(updateType).Inc()

			logEntry.DebugContext(ctx, "Processing update")

			next(ctx, b, update)

			logEntry.DebugContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
