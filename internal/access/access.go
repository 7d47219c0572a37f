// Package access decides whether an update may use the bot, based on the
// configured allow-list and, in group chats, on the membership of allowed
// users.
package access

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/rublebot/internal/config"
)

// MemberLookup fetches a user's membership in a chat. *bot.Bot satisfies it.
type MemberLookup interface {
	GetChatMember(ctx context.Context, params *bot.GetChatMemberParams) (*models.ChatMember, error)
}

// Gate evaluates the allow-list for incoming messages.
type Gate struct {
	allow config.AllowList
	log   *slog.Logger
}

// NewGate returns a Gate for allow.
func NewGate(allow config.AllowList, log *slog.Logger) *Gate {
	return &Gate{allow: allow, log: log.With("component", "access_gate")}
}

// Allowed reports whether msg may be served.
//
// The wildcard admits everyone. Otherwise the sender must be listed, or the
// message must come from a group or supergroup in which at least one listed
// id is an owner, administrator or member. Membership is checked one id at a
// time and stops at the first hit; a failed lookup counts as "not a member".
func (g *Gate) Allowed(ctx context.Context, lookup MemberLookup, msg *models.Message) bool {
	if g.allow.All() {
		return true
	}
	if msg == nil {
		return false
	}

	var senderID string
	if msg.From != nil {
		senderID = strconv.FormatInt(msg.From.ID, 10)
		if g.allow.Contains(senderID) {
			return true
		}
	}

	log := g.log.With("chat_id", msg.Chat.ID, "user_id", senderID)

	if IsGroupChat(string(msg.Chat.Type)) {
		for _, id := range g.allow.IDs() {
			if g.isMember(ctx, lookup, msg.Chat.ID, id) {
				log.InfoContext(ctx, "Allowed user is a chat member, allowing group message", "member_id", id)
				return true
			}
		}
		log.WarnContext(ctx, "Group chat message not allowed, no allowed user is a member")
		return false
	}

	log.WarnContext(ctx, "User is not allowed")
	return false
}

func (g *Gate) isMember(ctx context.Context, lookup MemberLookup, chatID int64, id string) bool {
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		g.log.DebugContext(ctx, "Skipping non-numeric allow-list entry", "entry", id)
		return false
	}
	if lookup == nil {
		return false
	}

	member, err := lookup.GetChatMember(ctx, &bot.GetChatMemberParams{ChatID: chatID, UserID: userID})
	if err != nil {
		g.log.DebugContext(ctx, "Chat member lookup failed", "chat_id", chatID, "member_id", userID, "error", err)
		return false
	}
	if member == nil {
		return false
	}

	switch member.Type {
	case models.ChatMemberTypeOwner, models.ChatMemberTypeAdministrator, models.ChatMemberTypeMember:
		return true
	default:
		return false
	}
}

// IsGroupChat reports whether a chat type names a group or supergroup.
func IsGroupChat(chatType string) bool {
	return chatType == string(models.ChatTypeGroup) || chatType == string(models.ChatTypeSupergroup)
}
