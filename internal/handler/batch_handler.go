package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-progress-api/internal/models"
	"github.com/noah-isme/sis-progress-api/pkg/response"
)

type batchService interface {
	RunDue(ctx context.Context) (models.BatchResult, error)
	RunFull(ctx context.Context) (models.BatchResult, error)
	RunForClassroom(ctx context.Context, classroomID string) (models.BatchResult, error)
}

// BatchHandler exposes the batch recalculation triggers.
type BatchHandler struct {
	batches batchService
}

// NewBatchHandler constructs handler.
func NewBatchHandler(batches batchService) *BatchHandler {
	return &BatchHandler{batches: batches}
}

// RecalculateDue godoc
// @Summary Recalculate snapshots past their due time
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /jobs/recalculate-due [post]
func (h *BatchHandler) RecalculateDue(c *gin.Context) {
	result, err := h.batches.RunDue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RecalculateFull godoc
// @Summary Recalculate snapshots for all active students
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /jobs/recalculate-full [post]
func (h *BatchHandler) RecalculateFull(c *gin.Context) {
	result, err := h.batches.RunFull(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RecalculateClassroom godoc
// @Summary Recalculate snapshots for one classroom
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/recalculate [post]
func (h *BatchHandler) RecalculateClassroom(c *gin.Context) {
	result, err := h.batches.RunForClassroom(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
