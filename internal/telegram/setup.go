// Package telegram creates the Bot API client and registers the bot's handlers on it.
package telegram

import (
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"

	"github.com/edgard/rublebot/internal/bot/handlers"
)

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created", "token_prefix", tokenPrefix(token))
	return b, nil
}

func tokenPrefix(token string) string {
	const n = 8
	if len(token) <= n {
		return "..."
	}
	return token[:n] + "..."
}

// applyMiddleware wraps a handler function with a slice of middleware.
// The first middleware in the slice is the outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// Registrar is the subset of *bot.Bot used to register handlers.
type Registrar interface {
	RegisterHandler(handlerType bot.HandlerType, pattern string, matchType bot.MatchType, f bot.HandlerFunc, m ...bot.Middleware) string
	RegisterHandlerMatchFunc(matchFunc bot.MatchFunc, f bot.HandlerFunc, m ...bot.Middleware) string
}

// RegisterHandlers registers every handler on b, applying its middleware.
// Handlers with a MatchFunc are registered by function, the rest by pattern.
func RegisterHandlers(b Registrar, logger *slog.Logger, registeredHandlers map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return fmt.Errorf("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(registeredHandlers) == 0 {
		log.Warn("No handlers provided for registration")
		return nil
	}

	for name, regHandler := range registeredHandlers {
		if regHandler.Handler == nil {
			log.Warn("Skipping registration for nil handler", "name", name)
			continue
		}

		finalHandler := applyMiddleware(regHandler.Handler, regHandler.Middleware)
		if regHandler.MatchFunc != nil {
			b.RegisterHandlerMatchFunc(regHandler.MatchFunc, finalHandler)
		} else {
			b.RegisterHandler(regHandler.HandlerType, regHandler.Pattern, regHandler.MatchType, finalHandler)
		}
		log.Debug("Registered handler", "name", name, "pattern", regHandler.Pattern, "middleware_count", len(regHandler.Middleware))
	}

	log.Info("Registered Telegram handlers", "count", len(registeredHandlers))
	return nil
}
