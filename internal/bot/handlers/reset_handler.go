package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const resetTimeout = 30 * time.Second

// NewResetHandler returns a handler for the /reset command. Register it
// behind AllowedOnly.
func NewResetHandler(deps HandlerDeps) bot.HandlerFunc {
	return resetHandler{deps}.Handle
}

type resetHandler struct {
	deps HandlerDeps
}

func (h resetHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "reset")
	if update.Message == nil {
		log.ErrorContext(ctx, "Reset handler called with nil Message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	var userID int64
	if update.Message.From != nil {
		userID = update.Message.From.ID
	}
	log.InfoContext(ctx, "Resetting the conversation", "chat_id", chatID, "user_id", userID)

	timeoutCtx, cancel := context.WithTimeout(ctx, resetTimeout)
	defer cancel()

	err := h.deps.Assistant.ResetChatHistory(timeoutCtx, chatID)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.WarnContext(ctx, "Reset operation timed out or was cancelled", "chat_id", chatID)
		return
	}
	if err != nil {
		log.ErrorContext(ctx, "Failed to reset conversation", "error", err, "chat_id", chatID)
		return
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   h.deps.Config.Messages.ResetDone,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reset confirmation message", "error", err, "chat_id", chatID)
	}
}
