package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-progress-api/internal/models"
	"github.com/noah-isme/sis-progress-api/internal/service"
	appErrors "github.com/noah-isme/sis-progress-api/pkg/errors"
	"github.com/noah-isme/sis-progress-api/pkg/response"
)

type weeklyService interface {
	Generate(ctx context.Context, req service.GenerateWeeklyRequest) (*models.WeeklyProgress, error)
	History(ctx context.Context, studentID string, limit int) ([]models.WeeklyProgress, error)
	UpdateCommentary(ctx context.Context, id string, req service.UpdateCommentaryRequest) (*models.WeeklyProgress, error)
}

type reportExporter interface {
	StudentProgressReport(ctx context.Context, studentID, format string, weeks int) (*service.ExportedReport, error)
}

// WeeklyHandler exposes weekly aggregate endpoints.
type WeeklyHandler struct {
	weekly  weeklyService
	exports reportExporter
}

// NewWeeklyHandler constructs handler.
func NewWeeklyHandler(weekly weeklyService, exports reportExporter) *WeeklyHandler {
	return &WeeklyHandler{weekly: weekly, exports: exports}
}

type generateWeeklyPayload struct {
	WeekNumber int `json:"week_number"`
	Year       int `json:"year"`
}

// Generate godoc
// @Summary Generate one weekly aggregate
// @Tags Weekly
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body generateWeeklyPayload true "ISO week"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/weekly [post]
func (h *WeeklyHandler) Generate(c *gin.Context) {
	var payload generateWeeklyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	week, err := h.weekly.Generate(c.Request.Context(), service.GenerateWeeklyRequest{
		StudentID:  c.Param("id"),
		WeekNumber: payload.WeekNumber,
		Year:       payload.Year,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, week)
}

// History godoc
// @Summary Recent weekly aggregates
// @Tags Weekly
// @Produce json
// @Param id path string true "Student ID"
// @Param limit query int false "Number of weeks" default(8)
// @Success 200 {object} response.Envelope
// @Router /students/{id}/weekly [get]
func (h *WeeklyHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "8"))
	weeks, err := h.weekly.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weeks, nil)
}

// UpdateCommentary godoc
// @Summary Update teacher commentary on a weekly row
// @Tags Weekly
// @Accept json
// @Produce json
// @Param id path string true "Weekly progress ID"
// @Param payload body service.UpdateCommentaryRequest true "Commentary fields"
// @Success 200 {object} response.Envelope
// @Router /weekly/{id}/commentary [patch]
func (h *WeeklyHandler) UpdateCommentary(c *gin.Context) {
	var req service.UpdateCommentaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	week, err := h.weekly.UpdateCommentary(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// Report godoc
// @Summary Export a student's progress report
// @Tags Weekly
// @Produce text/csv
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Param weeks query int false "Number of weeks" default(8)
// @Success 200 {file} file
// @Router /students/{id}/report [get]
func (h *WeeklyHandler) Report(c *gin.Context) {
	format := c.DefaultQuery("format", service.ExportFormatCSV)
	weeks, _ := strconv.Atoi(c.DefaultQuery("weeks", "8"))
	report, err := h.exports.StudentProgressReport(c.Request.Context(), c.Param("id"), format, weeks)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+report.Filename)
	c.Data(http.StatusOK, report.ContentType, report.Content)
}
