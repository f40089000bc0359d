package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/life-ease-api/internal/models"
	"github.com/noah-isme/life-ease-api/internal/repository"
)

// MessageRepository stores chat messages in the messages collection.
type MessageRepository struct {
	coll *mongo.Collection
}

func participant(userID string) bson.A {
	return bson.A{bson.M{"sender_id": userID}, bson.M{"receiver_id": userID}}
}

// ListForParticipant returns messages sent or received by userID, newest first.
func (r *MessageRepository) ListForParticipant(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{"$or": participant(userID)}, opts)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	messages := []models.Message{}
	if err := cur.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// FindForParticipant returns a message visible to userID.
func (r *MessageRepository) FindForParticipant(ctx context.Context, id, userID string) (*models.Message, error) {
	var msg models.Message
	if err := r.coll.FindOne(ctx, bson.M{"_id": id, "$or": participant(userID)}).Decode(&msg); err != nil {
		if err = mapError(err); errors.Is(err, repository.ErrNotFound) {
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
		msg.Timestamp = time.Now().UTC().Truncate(time.Millisecond)
	}
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// MarkSynced flags a participant's message as synced.
func (r *MessageRepository) MarkSynced(ctx context.Context, id, userID string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "$or": participant(userID)}, bson.M{"$set": bson.M{"is_synced": true}})
	if err != nil {
		return fmt.Errorf("mark message synced: %w", err)
	}
	return matched(res)
}

// MarkRead sets the read status on a message addressed to receiverID.
func (r *MessageRepository) MarkRead(ctx context.Context, id, receiverID string, readAt time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "receiver_id": receiverID},
		bson.M{"$set": bson.M{"status": models.MessageStatusRead, "read_at": readAt}},
	)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return matched(res)
}
