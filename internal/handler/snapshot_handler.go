package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-progress-api/internal/models"
	"github.com/noah-isme/sis-progress-api/pkg/response"
)

type snapshotService interface {
	Get(ctx context.Context, studentID string) (*models.StudentProgressSnapshot, error)
	Recalculate(ctx context.Context, studentID string) (*models.StudentProgressSnapshot, error)
	ListNeedingAttention(ctx context.Context, classroomID string) ([]models.StudentProgressSnapshot, error)
}

// SnapshotHandler exposes progress snapshot endpoints.
type SnapshotHandler struct {
	snapshots snapshotService
}

// NewSnapshotHandler constructs handler.
func NewSnapshotHandler(snapshots snapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshots: snapshots}
}

// Get godoc
// @Summary Student progress snapshot
// @Tags Snapshots
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/snapshot [get]
func (h *SnapshotHandler) Get(c *gin.Context) {
	snapshot, err := h.snapshots.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Recalculate godoc
// @Summary Recompute one student's snapshot
// @Tags Snapshots
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/snapshot/recalculate [post]
func (h *SnapshotHandler) Recalculate(c *gin.Context) {
	snapshot, err := h.snapshots.Recalculate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// ListAttention godoc
// @Summary Snapshots flagged as needing attention
// @Tags Snapshots
// @Produce json
// @Param classroomId query string false "Classroom ID filter"
// @Success 200 {object} response.Envelope
// @Router /snapshots/attention [get]
func (h *SnapshotHandler) ListAttention(c *gin.Context) {
	snapshots, err := h.snapshots.ListNeedingAttention(c.Request.Context(), c.Query("classroomId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshots, nil)
}
