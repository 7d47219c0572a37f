package handlers

import (
	"log/slog"

	"github.com/edgard/rublebot/internal/access"
	"github.com/edgard/rublebot/internal/assistant"
	"github.com/edgard/rublebot/internal/config"
	"github.com/edgard/rublebot/internal/currency"
)

// HandlerDeps provides dependencies for Telegram command and message handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Assistant assistant.Assistant
	Gate      *access.Gate
	Lookups   *currency.Lookups
}
