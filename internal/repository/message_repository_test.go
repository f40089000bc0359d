package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/life-ease-api/internal/models"
)

var messageRowColumns = []string{"id", "conversation_id", "sender_id", "receiver_id", "text", "type", "status", "is_synced", "timestamp", "delivered_at", "read_at"}

func TestMessageListForParticipant(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(messageRowColumns).
		AddRow("m1", "c1", "u1", "u2", "hi", "text", "sent", true, now, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE sender_id = $1 OR receiver_id = $1 ORDER BY timestamp DESC LIMIT $2")).
		WithArgs("u2", 100).
		WillReturnRows(rows)

	messages, err := repo.ListForParticipant(context.Background(), "u2", 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.NotNil(t, messages[0].ReceiverID)
	assert.Equal(t, "u2", *messages[0].ReceiverID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageCreateDefaultsTimestamp(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectExec("INSERT INTO messages").WillReturnResult(sqlmock.NewResult(1, 1))

	msg := &models.Message{SenderID: "u1", Text: "hi", Type: "text", Status: models.MessageStatusSent}
	require.NoError(t, repo.Create(context.Background(), msg))
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestMessageMarkReadOnlyReceiver(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE messages SET status = 'read', read_at = $3 WHERE id = $1 AND receiver_id = $2")).
		WithArgs("m1", "u1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRead(context.Background(), "m1", "u1", now)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageMarkSynced(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE messages SET is_synced = TRUE")).
		WithArgs("m1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkSynced(context.Background(), "m1", "u1"))
}
