package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/life-ease-api/internal/models"
)

const messageColumns = `id, conversation_id, sender_id, receiver_id, text, type, status, is_synced, timestamp, delivered_at, read_at`

// MessageRepository persists chat messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs a MessageRepository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// ListForParticipant returns messages sent or received by userID, newest first.
func (r *MessageRepository) ListForParticipant(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT ` + messageColumns + ` FROM messages WHERE sender_id = $1 OR receiver_id = $1 ORDER BY timestamp DESC LIMIT $2`
	messages := []models.Message{}
	if err := r.db.SelectContext(ctx, &messages, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// FindForParticipant returns a message visible to userID.
func (r *MessageRepository) FindForParticipant(ctx context.Context, id, userID string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1 AND (sender_id = $2 OR receiver_id = $2) LIMIT 1`
	var msg models.Message
	if err := r.db.GetContext(ctx, &msg, query, id, userID); err != nil {
		if err = mapError(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find message: %w", err)
	}
	return &msg, nil
}

// Create inserts a message.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	const query = `INSERT INTO messages (id, conversation_id, sender_id, receiver_id, text, type, status, is_synced, timestamp) VALUES (:id, :conversation_id, :sender_id, :receiver_id, :text, :type, :status, :is_synced, :timestamp)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// MarkSynced flags a participant's message as synced.
func (r *MessageRepository) MarkSynced(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_synced = TRUE WHERE id = $1 AND (sender_id = $2 OR receiver_id = $2)`, id, userID)
	if err != nil {
		return fmt.Errorf("mark message synced: %w", err)
	}
	return expectAffected(res, "mark message synced")
}

// MarkRead sets the read status on a message addressed to receiverID.
func (r *MessageRepository) MarkRead(ctx context.Context, id, receiverID string, readAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET status = 'read', read_at = $3 WHERE id = $1 AND receiver_id = $2`, id, receiverID, readAt)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return expectAffected(res, "mark message read")
}
