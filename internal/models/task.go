package models

import (
	"time"

	"github.com/lib/pq"
)

// TaskStatus enumerates task lifecycle states.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskPriority enumerates task priorities.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// TaskCategories is the fixed category list offered to clients.
var TaskCategories = []string{"personal", "work", "shopping", "health", "education", "social", "other"}

// Task is a to-do item owned by UserID and optionally assigned to another identity.
type Task struct {
	ID            string         `db:"id" bson:"_id" json:"id"`
	UserID        string         `db:"user_id" bson:"user_id" json:"user_id"`
	AssignedTo    *string        `db:"assigned_to" bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	Title         string         `db:"title" bson:"title" json:"title"`
	Description   string         `db:"description" bson:"description" json:"description"`
	Status        TaskStatus     `db:"status" bson:"status" json:"status"`
	Priority      TaskPriority   `db:"priority" bson:"priority" json:"priority"`
	Category      string         `db:"category" bson:"category" json:"category"`
	DueDate       time.Time      `db:"due_date" bson:"due_date" json:"due_date"`
	CompletedDate *time.Time     `db:"completed_date" bson:"completed_date,omitempty" json:"completed_date,omitempty"`
	ReminderTime  *time.Time     `db:"reminder_time" bson:"reminder_time,omitempty" json:"reminder_time,omitempty"`
	Tags          pq.StringArray `db:"tags" bson:"tags" json:"tags"`
	CreatedAt     time.Time      `db:"created_at" bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" bson:"updated_at" json:"updated_at"`
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	UserID   string
	Status   TaskStatus
	Category string
}

// CreateTaskRequest is the payload for creating a task.
type CreateTaskRequest struct {
	Title        string       `json:"title" validate:"required,max=200"`
	Description  string       `json:"description" validate:"omitempty,max=2000"`
	Status       TaskStatus   `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority     TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Category     string       `json:"category" validate:"required,oneof=personal work shopping health education social other"`
	DueDate      time.Time    `json:"due_date" validate:"required"`
	ReminderTime *time.Time   `json:"reminder_time"`
	Tags         []string     `json:"tags" validate:"omitempty,dive,max=50"`
	AssignedTo   *string      `json:"assigned_to" validate:"omitempty,uuid"`
}

// UpdateTaskRequest carries partial task updates. Nil fields are left unchanged.
type UpdateTaskRequest struct {
	Title        *string       `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string       `json:"description" validate:"omitempty,max=2000"`
	Status       *TaskStatus   `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority     *TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Category     *string       `json:"category" validate:"omitempty,oneof=personal work shopping health education social other"`
	DueDate      *time.Time    `json:"due_date"`
	ReminderTime *time.Time    `json:"reminder_time"`
	Tags         []string      `json:"tags" validate:"omitempty,dive,max=50"`
	AssignedTo   *string       `json:"assigned_to" validate:"omitempty,uuid"`
}
