package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/rublebot/internal/currency"
	"github.com/edgard/rublebot/internal/metrics"
)

const sendMessageTimeout = 10 * time.Second

type messageHandler struct {
	deps HandlerDeps
}

// NewMessageHandler creates the handler for non-command text messages.
// A message mentioning a currency gets a ruble conversion and is not
// forwarded; any other text is relayed to the assistant.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

func (h messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" || isCommand(msg) {
		return
	}

	if h.handleCurrency(ctx, b, msg) {
		return
	}
	h.handlePrompt(ctx, b, msg)
}

// handleCurrency reports whether msg mentioned a currency. The conversion
// itself runs in the background and replies when the rate arrives.
func (h messageHandler) handleCurrency(ctx context.Context, b *bot.Bot, msg *models.Message) bool {
	log := h.deps.Logger.With("handler", "currency", "chat_id", msg.Chat.ID)

	mention, err := currency.Classify(msg.Text)
	if errors.Is(err, currency.ErrNoMention) {
		return false
	}
	if err != nil {
		log.WarnContext(ctx, "Currency mentioned but amount could not be parsed", "currency", mention.Code, "error", err)
		return true
	}

	log.DebugContext(ctx, "Currency mention found", "currency", mention.Code, "amount", mention.Amount, "keyword", mention.Keyword)

	chatID := msg.Chat.ID
	h.deps.Lookups.Go(ctx, mention, func(ctx context.Context, m currency.Mention, converted float64, err error) {
		if err != nil {
			log.ErrorContext(ctx, "Currency conversion failed", "currency", m.Code, "error", err)
			return
		}

		sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
		defer cancel()
		if _, err := b.SendMessage(sendCtx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   currency.Format(m, converted),
		}); err != nil {
			log.ErrorContext(ctx, "Failed to send conversion", "error", err)
		}
	})
	return true
}

func (h messageHandler) handlePrompt(ctx context.Context, b *bot.Bot, msg *models.Message) {
	log := h.deps.Logger.With("handler", "prompt", "chat_id", msg.Chat.ID)

	if !checkAllowed(ctx, b, h.deps, msg, "prompt") {
		return
	}

	chatID := msg.Chat.ID
	log.InfoContext(ctx, "New message received", "message_id", msg.ID)

	if _, err := b.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	}); err != nil {
		log.DebugContext(ctx, "Failed to send typing action", "error", err)
	}

	response, err := h.deps.Assistant.GetChatResponse(ctx, chatID, msg.Text)
	if err != nil {
		metrics.Global().AIRepliesTotal.WithLabelValues(metrics.ResultError).Inc()
		log.ErrorContext(ctx, "Failed to get chat response", "error", err)
		return
	}
	metrics.Global().AIRepliesTotal.WithLabelValues(metrics.ResultOK).Inc()

	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()
	sent, err := b.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            response,
		ParseMode:       models.ParseModeMarkdownV1,
		ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err)
		return
	}
	log.InfoContext(ctx, "Sent reply", "message_id", sent.ID)
}

// isCommand reports whether msg starts with a bot command.
func isCommand(msg *models.Message) bool {
	for _, e := range msg.Entities {
		if e.Type == models.MessageEntityTypeBotCommand && e.Offset == 0 {
			return true
		}
	}
	return false
}
