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

// WaterRepository stores water entries in the water_entries collection.
type WaterRepository struct {
	coll *mongo.Collection
}

// List returns the owner's entries, newest first, optionally within [From, To).
func (r *WaterRepository) List(ctx context.Context, filter models.WaterEntryFilter) ([]models.WaterEntry, error) {
	query := bson.M{"user_id": filter.UserID}
	window := bson.M{}
	if filter.From != nil {
		window["$gte"] = *filter.From
	}
	if filter.To != nil {
		window["$lt"] = *filter.To
	}
	if len(window) > 0 {
		query["timestamp"] = window
	}

	cur, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list water entries: %w", err)
	}
	entries := []models.WaterEntry{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("list water entries: %w", err)
	}
	return entries, nil
}

// FindOwned returns an entry by id when it belongs to userID.
func (r *WaterRepository) FindOwned(ctx context.Context, id, userID string) (*models.WaterEntry, error) {
	var entry models.WaterEntry
	if err := r.coll.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&entry); err != nil {
		if err = mapError(err); errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find water entry: %w", err)
	}
	return &entry, nil
}

// Create inserts an entry.
func (r *WaterRepository) Create(ctx context.Context, entry *models.WaterEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("create water entry: %w", err)
	}
	return nil
}

// Update writes the mutable fields of an owned entry.
func (r *WaterRepository) Update(ctx context.Context, entry *models.WaterEntry) error {
	entry.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": entry.ID, "user_id": entry.UserID}, bson.M{"$set": bson.M{
		"amount":     entry.Amount,
		"unit":       entry.Unit,
		"timestamp":  entry.Timestamp,
		"note":       entry.Note,
		"updated_at": entry.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update water entry: %w", err)
	}
	return matched(res)
}

// Delete removes an owned entry.
func (r *WaterRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete water entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
