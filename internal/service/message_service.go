package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/life-ease-api/internal/models"
	"github.com/noah-isme/life-ease-api/internal/repository"
	appErrors "github.com/noah-isme/life-ease-api/pkg/errors"
)

type messageRepository interface {
	ListForParticipant(ctx context.Context, userID string, limit int) ([]models.Message, error)
	FindForParticipant(ctx context.Context, id, userID string) (*models.Message, error)
	Create(ctx context.Context, msg *models.Message) error
	MarkSynced(ctx context.Context, id, userID string) error
	MarkRead(ctx context.Context, id, receiverID string, readAt time.Time) error
}

var errMessageNotFound = appErrors.Clone(appErrors.ErrNotFound, "Message not found")

// MessageService stores chat messages and pushes them to online receivers.
type MessageService struct {
	repo      messageRepository
	events    eventPublisher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewMessageService creates a MessageService. events may be nil.
func NewMessageService(repo messageRepository, events eventPublisher, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &MessageService{repo: repo, events: events, validator: validate, logger: logger, now: time.Now}
}

// ConversationID derives a stable conversation key for two participants.
func ConversationID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

// List returns messages the caller sent or received, newest first.
func (s *MessageService) List(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	messages, err := s.repo.ListForParticipant(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Error fetching messages")
	}
	return messages, nil
}

// Send stores a message and pushes message:received to the receiver.
func (s *MessageService) Send(ctx context.Context, senderID string, req models.SendMessageRequest) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}

	receiverID := req.ReceiverID
	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = ConversationID(senderID, receiverID)
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     &receiverID,
		Text:           strings.TrimSpace(req.Text),
		Type:           "text",
		Status:         models.MessageStatusSent,
		IsSynced:       true,
		Timestamp:      s.now().UTC(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Error sending message")
	}

	s.events.Notify(receiverID, models.EventMessageReceived, models.MessageReceivedPayload{SenderID: senderID, Message: msg})
	return msg, nil
}

// MarkSynced flags a message the caller participates in as synced.
func (s *MessageService) MarkSynced(ctx context.Context, userID, id string) (*models.Message, error) {
	if err := s.repo.MarkSynced(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errMessageNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Error updating message sync status")
	}
	return s.reload(ctx, userID, id)
}

// MarkRead marks a message addressed to the caller as read and broadcasts message:read.
func (s *MessageService) MarkRead(ctx context.Context, userID, id string) (*models.Message, error) {
	if err := s.repo.MarkRead(ctx, id, userID, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errMessageNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Error updating message status")
	}

	s.events.Broadcast(models.EventMessageRead, models.MessageReadPayload{MessageID: id, ReadByID: userID})
	return s.reload(ctx, userID, id)
}

func (s *MessageService) reload(ctx context.Context, userID, id string) (*models.Message, error) {
	msg, err := s.repo.FindForParticipant(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errMessageNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load message")
	}
	return msg, nil
}
