package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/life-ease-api/internal/models"
	appErrors "github.com/noah-isme/life-ease-api/pkg/errors"
	"github.com/noah-isme/life-ease-api/pkg/response"
)

type messageService interface {
	List(ctx context.Context, userID string, limit int) ([]models.Message, error)
	Send(ctx context.Context, senderID string, req models.SendMessageRequest) (*models.Message, error)
	MarkSynced(ctx context.Context, userID, id string) (*models.Message, error)
	MarkRead(ctx context.Context, userID, id string) (*models.Message, error)
}

// MessageHandler exposes chat message endpoints.
type MessageHandler struct {
	service messageService
}

// NewMessageHandler constructs the handler.
func NewMessageHandler(svc messageService) *MessageHandler {
	return &MessageHandler{service: svc}
}

// List godoc
// @Summary List messages
// @Description Messages the caller sent or received, newest first
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum messages (default 100, max 500)"
// @Success 200 {object} response.Envelope{data=[]models.Message}
// @Router /messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	messages, err := h.service.List(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, messages)
}

// Send godoc
// @Summary Send message
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SendMessageRequest true "Message"
// @Success 201 {object} response.Envelope{data=models.Message}
// @Failure 400 {object} response.Envelope
// @Router /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req models.SendMessageRequest
	if !bindJSON(c, &req, "invalid message payload") {
		return
	}
	msg, err := h.service.Send(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// Sync godoc
// @Summary Mark message synced
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} response.Envelope{data=models.Message}
// @Failure 404 {object} response.Envelope
// @Router /messages/{id}/sync [patch]
func (h *MessageHandler) Sync(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	msg, err := h.service.MarkSynced(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, msg)
}

// Read godoc
// @Summary Mark message read
// @Description Only the receiver can mark a message read. Broadcasts message:read.
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} response.Envelope{data=models.Message}
// @Failure 404 {object} response.Envelope
// @Router /messages/{id}/read [patch]
func (h *MessageHandler) Read(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	msg, err := h.service.MarkRead(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, msg)
}
