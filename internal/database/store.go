package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for conversation history operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessages inserts conversation turns atomically, in order.
	SaveMessages(ctx context.Context, messages ...*Message) error

	// GetRecentMessages returns up to limit most recent turns of a chat, oldest first.
	GetRecentMessages(ctx context.Context, chatID int64, limit int) ([]*Message, error)

	// DeleteChatMessages removes a chat's whole history and returns the number of rows removed.
	DeleteChatMessages(ctx context.Context, chatID int64) (int64, error)

	// DeleteMessagesBefore removes turns created before cutoff across all chats.
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveMessages(ctx context.Context, messages ...*Message) error {
	if len(messages) == 0 {
		return nil
	}
	for _, m := range messages {
		if m == nil {
			return fmt.Errorf("cannot save nil message")
		}
		if m.ChatID == 0 {
			return fmt.Errorf("message must have a non-zero chat_id")
		}
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("message has invalid role %q", m.Role)
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now().UTC()
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	const query = `
        INSERT INTO messages (chat_id, role, content, created_at)
        VALUES (:chat_id, :role, :content, :created_at);
    `
	for _, m := range messages {
		result, err := tx.NamedExecContext(ctx, query, m)
		if err != nil {
			return fmt.Errorf("failed to save message (chat %d): %w", m.ChatID, err)
		}
		if id, err := result.LastInsertId(); err == nil {
			m.ID = id
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.DebugContext(ctx, "Messages saved", "chat_id", messages[0].ChatID, "count", len(messages))
	return nil
}

func (s *sqlxStore) GetRecentMessages(ctx context.Context, chatID int64, limit int) ([]*Message, error) {
	if limit <= 0 {
		return []*Message{}, nil
	}

	const query = `
        SELECT id, chat_id, role, content, created_at FROM (
            SELECT id, chat_id, role, content, created_at
            FROM messages
            WHERE chat_id = ?
            ORDER BY id DESC
            LIMIT ?
        ) ORDER BY id ASC;
    `

	var messages []*Message
	if err := s.db.SelectContext(ctx, &messages, query, chatID, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent messages for chat %d: %w", chatID, err)
	}
	if messages == nil {
		messages = []*Message{}
	}
	return messages, nil
}

func (s *sqlxStore) DeleteChatMessages(ctx context.Context, chatID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?;`, chatID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages for chat %d: %w", chatID, err)
	}
	affected, _ := result.RowsAffected()
	s.logger.DebugContext(ctx, "Deleted chat history", "chat_id", chatID, "rows", affected)
	return affected, nil
}

func (s *sqlxStore) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE created_at < ?;`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

// RunSQLMaintenance runs ANALYZE then VACUUM. VACUUM must run outside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "ANALYZE;"); err != nil {
		return fmt.Errorf("failed to analyze database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}
