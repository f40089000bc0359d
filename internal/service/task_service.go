package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/life-ease-api/internal/models"
	"github.com/noah-isme/life-ease-api/internal/repository"
	appErrors "github.com/noah-isme/life-ease-api/pkg/errors"
)

type taskRepository interface {
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	ListOverdue(ctx context.Context, userID string, now time.Time) ([]models.Task, error)
	FindOwned(ctx context.Context, id, userID string) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id, userID string) error
}

// TaskCategory is one entry of the category listing.
type TaskCategory struct {
	Name string `json:"name"`
}

var errTaskNotFound = appErrors.Clone(appErrors.ErrNotFound, "Task not found")

// TaskService manages the caller's tasks and notifies assignees.
type TaskService struct {
	repo      taskRepository
	events    eventPublisher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTaskService creates a TaskService. events may be nil.
func NewTaskService(repo taskRepository, events eventPublisher, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &TaskService{repo: repo, events: events, validator: validate, logger: logger, now: time.Now}
}

// List returns the caller's tasks matching filter.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	if filter.Status != "" {
		if err := s.validator.Var(string(filter.Status), "oneof=pending in_progress completed cancelled"); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status filter")
		}
	}
	tasks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// Categories returns the fixed category list.
func (s *TaskService) Categories() []TaskCategory {
	out := make([]TaskCategory, 0, len(models.TaskCategories))
	for _, name := range models.TaskCategories {
		out = append(out, TaskCategory{Name: name})
	}
	return out
}

// Overdue returns open tasks whose due date has passed.
func (s *TaskService) Overdue(ctx context.Context, userID string) ([]models.Task, error) {
	tasks, err := s.repo.ListOverdue(ctx, userID, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overdue tasks")
	}
	return tasks, nil
}

// Create stores a task owned by userID.
func (s *TaskService) Create(ctx context.Context, userID string, req models.CreateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	task := &models.Task{
		UserID:       userID,
		AssignedTo:   normaliseAssignee(req.AssignedTo),
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		Category:     req.Category,
		DueDate:      req.DueDate.UTC(),
		ReminderTime: req.ReminderTime,
		Tags:         req.Tags,
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	if task.Status == models.TaskStatusCompleted {
		completed := s.now().UTC()
		task.CompletedDate = &completed
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}

	if assignee := task.AssignedTo; assignee != nil && *assignee != userID {
		s.events.Notify(*assignee, models.EventTaskAssigned, models.TaskAssignedPayload{TaskID: task.ID, AssignedByID: userID, Task: task})
	}
	return task, nil
}

// Update applies a partial update to an owned task.
func (s *TaskService) Update(ctx context.Context, userID, id string, req models.UpdateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	task, err := s.repo.FindOwned(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errTaskNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	previousAssignee := ""
	if task.AssignedTo != nil {
		previousAssignee = *task.AssignedTo
	}

	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Category != nil {
		task.Category = *req.Category
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate.UTC()
	}
	if req.ReminderTime != nil {
		task.ReminderTime = req.ReminderTime
	}
	if req.Tags != nil {
		task.Tags = req.Tags
	}
	if req.AssignedTo != nil {
		task.AssignedTo = normaliseAssignee(req.AssignedTo)
	}
	if req.Status != nil && *req.Status != task.Status {
		task.Status = *req.Status
		if task.Status == models.TaskStatusCompleted {
			completed := s.now().UTC()
			task.CompletedDate = &completed
		} else {
			task.CompletedDate = nil
		}
	}

	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errTaskNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}

	s.notifyUpdate(userID, previousAssignee, task)
	return task, nil
}

// Delete removes an owned task.
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errTaskNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	return nil
}

func (s *TaskService) notifyUpdate(ownerID, previousAssignee string, task *models.Task) {
	updated := models.TaskUpdatedPayload{TaskID: task.ID, Update: task}
	s.events.Notify(ownerID, models.EventTaskUpdated, updated)

	if task.AssignedTo == nil || *task.AssignedTo == ownerID {
		return
	}
	assignee := *task.AssignedTo
	if assignee != previousAssignee {
		s.events.Notify(assignee, models.EventTaskAssigned, models.TaskAssignedPayload{TaskID: task.ID, AssignedByID: ownerID, Task: task})
	}
	s.events.Notify(assignee, models.EventTaskUpdated, updated)
}

func normaliseAssignee(assignee *string) *string {
	if assignee == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*assignee)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
