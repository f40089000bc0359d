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

// TaskRepository stores tasks in the tasks collection.
type TaskRepository struct {
	coll *mongo.Collection
}

// List returns the owner's tasks ordered by due date.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := bson.M{"user_id": filter.UserID}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	return r.find(ctx, query, "list tasks")
}

// ListOverdue returns open tasks whose due date is before now.
func (r *TaskRepository) ListOverdue(ctx context.Context, userID string, now time.Time) ([]models.Task, error) {
	return r.find(ctx, bson.M{
		"user_id":  userID,
		"due_date": bson.M{"$lt": now},
		"status":   bson.M{"$nin": []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusCancelled}},
	}, "list overdue tasks")
}

func (r *TaskRepository) find(ctx context.Context, filter bson.M, op string) ([]models.Task, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tasks := []models.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tasks, nil
}

// FindOwned returns a task by id when it belongs to userID.
func (r *TaskRepository) FindOwned(ctx context.Context, id, userID string) (*models.Task, error) {
	var task models.Task
	if err := r.coll.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&task); err != nil {
		if err = mapError(err); errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

// Create inserts a task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if task.Tags == nil {
		task.Tags = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update replaces an owned task document.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if task.Tags == nil {
		task.Tags = []string{}
	}
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": task.ID, "user_id": task.UserID}, task)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an owned task.
func (r *TaskRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
