package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/rublebot/internal/access"
)

// maxInlineResultID is the Bot API limit on inline result ids, in bytes.
const maxInlineResultID = 64

// NewInlineHandler returns a handler that offers the typed inline query back
// as a single article.
func NewInlineHandler(deps HandlerDeps) bot.HandlerFunc {
	return inlineHandler{deps}.Handle
}

type inlineHandler struct {
	deps HandlerDeps
}

// MatchGroupInlineQuery matches inline queries sent from group or supergroup chats.
func MatchGroupInlineQuery(update *models.Update) bool {
	return update.InlineQuery != nil && access.IsGroupChat(string(update.InlineQuery.ChatType))
}

func (h inlineHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "inline")

	q := update.InlineQuery
	if q == nil || q.Query == "" {
		return
	}

	_, err := b.AnswerInlineQuery(ctx, &bot.AnswerInlineQueryParams{
		InlineQueryID: q.ID,
		Results: []models.InlineQueryResult{
			&models.InlineQueryResultArticle{
				ID:                  inlineResultID(q.Query),
				Title:               h.deps.Config.Messages.InlineTitle,
				InputMessageContent: &models.InputTextMessageContent{MessageText: q.Query},
				Description:         q.Query,
				ThumbnailURL:        h.deps.Config.Messages.InlineThumbnailURL,
			},
		},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to answer inline query", "error", err, "inline_query_id", q.ID)
	}
}

// inlineResultID uses the query as the result id, hashing queries that do not fit.
func inlineResultID(query string) string {
	if len(query) <= maxInlineResultID {
		return query
	}
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}
