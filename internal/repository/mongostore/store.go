// Package mongostore implements the record store contracts on MongoDB. Documents
// use the same uuid string identifiers as the Postgres store.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/life-ease-api/internal/repository"
)

const (
	usersCollection    = "users"
	tasksCollection    = "tasks"
	messagesCollection = "messages"
	waterCollection    = "water_entries"
)

// Store groups the collections used by the repositories.
type Store struct {
	db       *mongo.Database
	users    *mongo.Collection
	tasks    *mongo.Collection
	messages *mongo.Collection
	water    *mongo.Collection
}

// New wraps a database handle and ensures the indexes the repositories rely on.
func New(ctx context.Context, db *mongo.Database) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("mongostore: nil database")
	}
	s := &Store{
		db:       db,
		users:    db.Collection(usersCollection),
		tasks:    db.Collection(tasksCollection),
		messages: db.Collection(messagesCollection),
		water:    db.Collection(waterCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Users returns the identity repository.
func (s *Store) Users() *UserRepository { return &UserRepository{coll: s.users} }

// Tasks returns the task repository.
func (s *Store) Tasks() *TaskRepository { return &TaskRepository{coll: s.tasks} }

// Messages returns the message repository.
func (s *Store) Messages() *MessageRepository { return &MessageRepository{coll: s.messages} }

// Water returns the water entry repository.
func (s *Store) Water() *WaterRepository { return &WaterRepository{coll: s.water} }

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique").SetUnique(true),
	}); err != nil {
		return fmt.Errorf("mongo ensure users indexes: %w", err)
	}

	if _, err := s.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "due_date", Value: 1}}, Options: options.Index().SetName("user_due")},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("user_status")},
	}); err != nil {
		return fmt.Errorf("mongo ensure tasks indexes: %w", err)
	}

	if _, err := s.messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "timestamp", Value: -1}}, Options: options.Index().SetName("sender_ts_desc")},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "timestamp", Value: -1}}, Options: options.Index().SetName("receiver_ts_desc")},
	}); err != nil {
		return fmt.Errorf("mongo ensure messages indexes: %w", err)
	}

	if _, err := s.water.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("user_ts_desc"),
	}); err != nil {
		return fmt.Errorf("mongo ensure water indexes: %w", err)
	}
	return nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicate
	default:
		return err
	}
}

func matched(res *mongo.UpdateResult) error {
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
