package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/rublebot/internal/access"
)

// NewHelpHandler returns a handler for the /help and /start commands.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

// helpHandler sends the static usage text. It is not access controlled.
type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if update.Message == nil {
		log.WarnContext(ctx, "Help handler received update with nil message", "update_id", update.ID)
		return
	}
	msg := update.Message

	log.InfoContext(ctx, "Handling help command", "chat_id", msg.Chat.ID)

	params := &bot.SendMessageParams{
		ChatID:             msg.Chat.ID,
		Text:               h.deps.Config.Messages.Help,
		LinkPreviewOptions: noLinkPreview(),
	}
	// In groups the usage text quotes the command so it is clear who asked.
	if access.IsGroupChat(string(msg.Chat.Type)) {
		params.ReplyParameters = &models.ReplyParameters{MessageID: msg.ID}
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		log.ErrorContext(ctx, "Failed to send help message", "error", err, "chat_id", msg.Chat.ID)
	} else {
		log.DebugContext(ctx, "Successfully sent help message", "chat_id", msg.Chat.ID)
	}
}
