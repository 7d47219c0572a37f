package handlers

import (
	"log/slog"

	"github.com/go-telegram/bot"
)

// NewErrorsHandler returns the transport error hook. Errors are only logged.
func NewErrorsHandler(log *slog.Logger) bot.ErrorsHandler {
	log = log.With("component", "telegram_errors")
	return func(err error) {
		log.Debug("Exception while handling an update", "error", err)
	}
}
