package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/life-ease-api/internal/models"
	"github.com/noah-isme/life-ease-api/pkg/response"
)

type userService interface {
	Profile(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, req models.UpdateProfileRequest) (*models.User, error)
	Online() models.OnlineUsers
}

// UserHandler serves the caller's profile and presence.
type UserHandler struct {
	service userService
}

// NewUserHandler constructs the handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// Profile godoc
// @Summary Current profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=models.User}
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/profile [get]
func (h *UserHandler) Profile(c *gin.Context) {
	id, ok := identityFromContext(c)
	if !ok {
		return
	}
	user, err := h.service.Profile(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// UpdateProfile godoc
// @Summary Update current profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope{data=models.User}
// @Failure 400 {object} response.Envelope
// @Router /users/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// Online godoc
// @Summary Online users
// @Description Identities with at least one live realtime connection
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=models.OnlineUsers}
// @Router /users/online [get]
func (h *UserHandler) Online(c *gin.Context) {
	response.OK(c, h.service.Online())
}
