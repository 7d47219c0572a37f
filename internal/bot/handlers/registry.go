package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a handler with its routing rule and middleware.
// Handlers with a MatchFunc are routed by it; the others by pattern.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	MatchType   tgbot.MatchType
	MatchFunc   tgbot.MatchFunc
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
}

// RegisterAll returns every routed handler keyed by a readable name.
// Plain text is not listed here: it is served by NewMessageHandler as the
// bot's default handler.
func RegisterAll(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	help := NewHelpHandler(deps)
	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     help,
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/help"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "help",
		Handler:     help,
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/reset"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "reset",
		Handler:     NewResetHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  []tgbot.Middleware{AllowedOnly(deps, "reset")},
	}
	handlers["inline_query"] = RegisteredHandler{
		MatchFunc: MatchGroupInlineQuery,
		Handler:   NewInlineHandler(deps),
	}

	return handlers
}
