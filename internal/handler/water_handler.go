package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/life-ease-api/internal/models"
	"github.com/noah-isme/life-ease-api/pkg/export"
	"github.com/noah-isme/life-ease-api/pkg/response"
)

type waterService interface {
	List(ctx context.Context, userID string) ([]models.WaterEntry, error)
	Create(ctx context.Context, userID string, req models.CreateWaterEntryRequest) (*models.WaterEntry, error)
	Update(ctx context.Context, userID, id string, req models.UpdateWaterEntryRequest) (*models.WaterEntry, error)
	Delete(ctx context.Context, userID, id string) error
	Summary(ctx context.Context, userID, date string) (*models.WaterSummary, error)
	Export(ctx context.Context, userID, format string) (*export.File, error)
}

// WaterHandler exposes water intake endpoints.
type WaterHandler struct {
	service waterService
}

// NewWaterHandler constructs the handler.
func NewWaterHandler(svc waterService) *WaterHandler {
	return &WaterHandler{service: svc}
}

// List godoc
// @Summary List water entries
// @Tags Water
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.WaterEntry}
// @Router /water-entries [get]
func (h *WaterHandler) List(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	entries, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entries)
}

// Create godoc
// @Summary Log water intake
// @Tags Water
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateWaterEntryRequest true "Entry"
// @Success 201 {object} response.Envelope{data=models.WaterEntry}
// @Failure 400 {object} response.Envelope
// @Router /water-entries [post]
func (h *WaterHandler) Create(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req models.CreateWaterEntryRequest
	if !bindJSON(c, &req, "invalid water entry payload") {
		return
	}
	entry, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Update godoc
// @Summary Update water entry
// @Tags Water
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param payload body models.UpdateWaterEntryRequest true "Changed fields"
// @Success 200 {object} response.Envelope{data=models.WaterEntry}
// @Failure 404 {object} response.Envelope
// @Router /water-entries/{id} [put]
func (h *WaterHandler) Update(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req models.UpdateWaterEntryRequest
	if !bindJSON(c, &req, "invalid water entry payload") {
		return
	}
	entry, err := h.service.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entry)
}

// Delete godoc
// @Summary Delete water entry
// @Tags Water
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /water-entries/{id} [delete]
func (h *WaterHandler) Delete(c *gin.Context) {
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

// Summary godoc
// @Summary Daily water total
// @Tags Water
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day as YYYY-MM-DD (UTC), defaults to today"
// @Success 200 {object} response.Envelope{data=models.WaterSummary}
// @Failure 400 {object} response.Envelope
// @Router /water-entries/summary [get]
func (h *WaterHandler) Summary(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}

// Export godoc
// @Summary Export water entries
// @Tags Water
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /water-entries/export [get]
func (h *WaterHandler) Export(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	file, err := h.service.Export(c.Request.Context(), userID, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
