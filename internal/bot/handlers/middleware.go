// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/rublebot/internal/metrics"
)

// AllowedOnly creates a middleware that runs next only when the access gate
// admits the message. Otherwise it sends the not-allowed text and stops.
func AllowedOnly(deps HandlerDeps, handler string) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil {
				return
			}
			if !checkAllowed(ctx, b, deps, update.Message, handler) {
				return
			}
			next(ctx, b, update)
		}
	}
}

// checkAllowed consults the gate and answers denied messages.
func checkAllowed(ctx context.Context, b *tgbot.Bot, deps HandlerDeps, msg *models.Message, handler string) bool {
	if deps.Gate.Allowed(ctx, b, msg) {
		return true
	}

	log := deps.Logger.With("middleware", "AllowedOnly", "handler", handler)
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	log.WarnContext(ctx, "User is not allowed to use this handler", "user_id", userID, "chat_id", msg.Chat.ID)
	metrics.Global().DeniedTotal.WithLabelValues(handler).Inc()

	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:             msg.Chat.ID,
		Text:               deps.Config.Messages.NotAllowed,
		LinkPreviewOptions: noLinkPreview(),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send not allowed message", "error", err, "chat_id", msg.Chat.ID)
	}
	return false
}

func noLinkPreview() *models.LinkPreviewOptions {
	disabled := true
	return &models.LinkPreviewOptions{IsDisabled: &disabled}
}
