package database

import (
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat's conversation with the AI backend.
// History is keyed by ChatID; the bot never reads another chat's turns.
type Message struct {
	ID        int64     `db:"id"`
	ChatID    int64     `db:"chat_id"`
	Role      Role      `db:"role"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}
