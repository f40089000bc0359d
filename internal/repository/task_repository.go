package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/life-ease-api/internal/models"
)

const taskColumns = `id, user_id, assigned_to, title, description, status, priority, category, due_date, completed_date, reminder_time, tags, created_at, updated_at`

// TaskRepository persists tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs a TaskRepository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns the owner's tasks ordered by due date.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	query := fmt.Sprintf("SELECT %s FROM tasks WHERE %s ORDER BY due_date ASC", taskColumns, strings.Join(conditions, " AND "))
	tasks := []models.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListOverdue returns open tasks whose due date is before now.
func (r *TaskRepository) ListOverdue(ctx context.Context, userID string, now time.Time) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 AND due_date < $2 AND status NOT IN ('completed', 'cancelled') ORDER BY due_date ASC`
	tasks := []models.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, userID, now); err != nil {
		return nil, fmt.Errorf("list overdue tasks: %w", err)
	}
	return tasks, nil
}

// FindOwned returns a task by id when it belongs to userID.
func (r *TaskRepository) FindOwned(ctx context.Context, id, userID string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2 LIMIT 1`
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id, userID); err != nil {
		if err = mapError(err); errors.Is(err, ErrNotFound) {
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
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if task.Tags == nil {
		task.Tags = []string{}
	}

	const query = `INSERT INTO tasks (id, user_id, assigned_to, title, description, status, priority, category, due_date, completed_date, reminder_time, tags, created_at, updated_at) VALUES (:id, :user_id, :assigned_to, :title, :description, :status, :priority, :category, :due_date, :completed_date, :reminder_time, :tags, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update writes all mutable fields of an owned task.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	if task.Tags == nil {
		task.Tags = []string{}
	}
	const query = `UPDATE tasks SET assigned_to = :assigned_to, title = :title, description = :description, status = :status, priority = :priority, category = :category, due_date = :due_date, completed_date = :completed_date, reminder_time = :reminder_time, tags = :tags, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, task)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectAffected(res, "update task")
}

// Delete removes an owned task.
func (r *TaskRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectAffected(res, "delete task")
}
