// Package tasks implements the bot's scheduled maintenance tasks and their
// registration.
package tasks

import (
	"log/slog"

	"github.com/edgard/rublebot/internal/config"
	"github.com/edgard/rublebot/internal/database"
)

// TaskDeps contains the dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
