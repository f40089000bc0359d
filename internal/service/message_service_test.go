package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/life-ease-api/internal/models"
	"github.com/noah-isme/life-ease-api/internal/repository"
	appErrors "github.com/noah-isme/life-ease-api/pkg/errors"
)

type mockMessageRepo struct {
	messages  map[string]*models.Message
	lastLimit int
}

func (m *mockMessageRepo) participant(msg *models.Message, userID string) bool {
	return msg.SenderID == userID || (msg.ReceiverID != nil && *msg.ReceiverID == userID)
}

func (m *mockMessageRepo) ListForParticipant(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	m.lastLimit = limit
	out := []models.Message{}
	for _, msg := range m.messages {
		if m.participant(msg, userID) {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *mockMessageRepo) FindForParticipant(ctx context.Context, id, userID string) (*models.Message, error) {
	msg, ok := m.messages[id]
	if !ok || !m.participant(msg, userID) {
		return nil, repository.ErrNotFound
	}
	clone := *msg
	return &clone, nil
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	msg.ID = "msg-1"
	clone := *msg
	m.messages[msg.ID] = &clone
	return nil
}

func (m *mockMessageRepo) MarkSynced(ctx context.Context, id, userID string) error {
	msg, ok := m.messages[id]
	if !ok || !m.participant(msg, userID) {
		return repository.ErrNotFound
	}
	msg.IsSynced = true
	return nil
}

func (m *mockMessageRepo) MarkRead(ctx context.Context, id, receiverID string, readAt time.Time) error {
	msg, ok := m.messages[id]
	if !ok || msg.ReceiverID == nil || *msg.ReceiverID != receiverID {
		return repository.ErrNotFound
	}
	msg.Status = models.MessageStatusRead
	msg.ReadAt = &readAt
	return nil
}

func newMessageFixture() (*mockMessageRepo, *recordingPublisher, *MessageService) {
	repo := &mockMessageRepo{messages: map[string]*models.Message{}}
	events := &recordingPublisher{}
	svc := NewMessageService(repo, events, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC) }
	return repo, events, svc
}

func TestConversationIDIsOrderIndependent(t *testing.T) {
	assert.Equal(t, ConversationID("b", "a"), ConversationID("a", "b"))
	assert.Equal(t, "a:b", ConversationID("b", "a"))
}

func TestMessageServiceSend(t *testing.T) {
	_, events, svc := newMessageFixture()

	msg, err := svc.Send(context.Background(), ownerID, models.SendMessageRequest{ReceiverID: assigneeID, Text: " hello "})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, models.MessageStatusSent, msg.Status)
	assert.Equal(t, "text", msg.Type)
	assert.True(t, msg.IsSynced)
	assert.Equal(t, ConversationID(ownerID, assigneeID), msg.ConversationID)

	received := events.named(models.EventMessageReceived)
	require.Len(t, received, 1)
	assert.Equal(t, assigneeID, received[0].Recipient)
	assert.Equal(t, ownerID, received[0].Payload.(models.MessageReceivedPayload).SenderID)
}

func TestMessageServiceSendValidation(t *testing.T) {
	_, events, svc := newMessageFixture()
	_, err := svc.Send(context.Background(), ownerID, models.SendMessageRequest{ReceiverID: "not-a-uuid", Text: "x"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Send(context.Background(), ownerID, models.SendMessageRequest{ReceiverID: assigneeID})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, events.named(models.EventMessageReceived))
}

func TestMessageServiceMarkRead(t *testing.T) {
	_, events, svc := newMessageFixture()
	msg, err := svc.Send(context.Background(), ownerID, models.SendMessageRequest{ReceiverID: assigneeID, Text: "hi"})
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), ownerID, msg.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Empty(t, events.named(models.EventMessageRead))

	read, err := svc.MarkRead(context.Background(), assigneeID, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusRead, read.Status)
	require.NotNil(t, read.ReadAt)

	broadcasts := events.named(models.EventMessageRead)
	require.Len(t, broadcasts, 1)
	assert.Empty(t, broadcasts[0].Recipient)
	assert.Equal(t, models.MessageReadPayload{MessageID: msg.ID, ReadByID: assigneeID}, broadcasts[0].Payload)
}

func TestMessageServiceMarkSynced(t *testing.T) {
	repo, _, svc := newMessageFixture()
	msg, err := svc.Send(context.Background(), ownerID, models.SendMessageRequest{ReceiverID: assigneeID, Text: "hi"})
	require.NoError(t, err)
	repo.messages[msg.ID].IsSynced = false

	synced, err := svc.MarkSynced(context.Background(), ownerID, msg.ID)
	require.NoError(t, err)
	assert.True(t, synced.IsSynced)

	_, err = svc.MarkSynced(context.Background(), "stranger", msg.ID)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "Message not found", appErrors.FromError(err).Message)
}

func TestMessageServiceList(t *testing.T) {
	repo, _, svc := newMessageFixture()
	_, err := svc.Send(context.Background(), ownerID, models.SendMessageRequest{ReceiverID: assigneeID, Text: "hi"})
	require.NoError(t, err)

	messages, err := svc.List(context.Background(), assigneeID, 50)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Equal(t, 50, repo.lastLimit)

	messages, err = svc.List(context.Background(), "stranger", 0)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
