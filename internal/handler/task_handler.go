package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/life-ease-api/internal/models"
	"github.com/noah-isme/life-ease-api/internal/service"
	"github.com/noah-isme/life-ease-api/pkg/response"
)

type taskService interface {
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Categories() []service.TaskCategory
	Overdue(ctx context.Context, userID string) ([]models.Task, error)
	Create(ctx context.Context, userID string, req models.CreateTaskRequest) (*models.Task, error)
	Update(ctx context.Context, userID, id string, req models.UpdateTaskRequest) (*models.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

// TaskHandler exposes task endpoints.
type TaskHandler struct {
	service taskService
}

// NewTaskHandler constructs the handler.
func NewTaskHandler(svc taskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// List godoc
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending|in_progress|completed|cancelled"
// @Param category query string false "Category"
// @Success 200 {object} response.Envelope{data=[]models.Task}
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	filter := models.TaskFilter{
		UserID:   userID,
		Status:   models.TaskStatus(c.Query("status")),
		Category: c.Query("category"),
	}
	tasks, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tasks)
}

// Categories godoc
// @Summary Task categories
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]service.TaskCategory}
// @Router /tasks/categories [get]
func (h *TaskHandler) Categories(c *gin.Context) {
	response.OK(c, h.service.Categories())
}

// Overdue godoc
// @Summary Overdue tasks
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.Task}
// @Router /tasks/overdue [get]
func (h *TaskHandler) Overdue(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	tasks, err := h.service.Overdue(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tasks)
}

// Create godoc
// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateTaskRequest true "Task"
// @Success 201 {object} response.Envelope{data=models.Task}
// @Failure 400 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req models.CreateTaskRequest
	if !bindJSON(c, &req, "invalid task payload") {
		return
	}
	task, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// Update godoc
// @Summary Update task
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param payload body models.UpdateTaskRequest true "Changed fields"
// @Success 200 {object} response.Envelope{data=models.Task}
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req models.UpdateTaskRequest
	if !bindJSON(c, &req, "invalid task payload") {
		return
	}
	task, err := h.service.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, task)
}

// Delete godoc
// @Summary Delete task
// @Tags Tasks
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
