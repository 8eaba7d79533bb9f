package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-progress-api/internal/models"
	"github.com/noah-isme/sis-progress-api/internal/service"
	appErrors "github.com/noah-isme/sis-progress-api/pkg/errors"
)

type weeklyServiceMock struct {
	week       *models.WeeklyProgress
	history    []models.WeeklyProgress
	err        error
	generated  []service.GenerateWeeklyRequest
	commentary []service.UpdateCommentaryRequest
}

func (m *weeklyServiceMock) Generate(_ context.Context, req service.GenerateWeeklyRequest) (*models.WeeklyProgress, error) {
	m.generated = append(m.generated, req)
	return m.week, m.err
}

func (m *weeklyServiceMock) History(context.Context, string, int) ([]models.WeeklyProgress, error) {
	return m.history, m.err
}

func (m *weeklyServiceMock) UpdateCommentary(_ context.Context, _ string, req service.UpdateCommentaryRequest) (*models.WeeklyProgress, error) {
	m.commentary = append(m.commentary, req)
	return m.week, m.err
}

type reportExporterMock struct {
	report *service.ExportedReport
	err    error
}

func (m *reportExporterMock) StudentProgressReport(context.Context, string, string, int) (*service.ExportedReport, error) {
	return m.report, m.err
}

func TestWeeklyHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &weeklyServiceMock{week: &models.WeeklyProgress{StudentID: "student-1", WeekNumber: 12, Year: 2026}}
	handler := NewWeeklyHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodPost, "/students/student-1/weekly", []byte(`{"week_number":12,"year":2026}`))
	c.Params = gin.Params{{Key: "id", Value: "student-1"}}

	handler.Generate(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, mockSvc.generated, 1)
	require.Equal(t, "student-1", mockSvc.generated[0].StudentID)
	require.Equal(t, 12, mockSvc.generated[0].WeekNumber)
}

func TestWeeklyHandlerGenerateRejectsBadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewWeeklyHandler(&weeklyServiceMock{}, nil)

	c, w := newGinContext(http.MethodPost, "/students/student-1/weekly", []byte(`{"week_number":`))
	c.Params = gin.Params{{Key: "id", Value: "student-1"}}

	handler.Generate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWeeklyHandlerUpdateCommentaryNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewWeeklyHandler(&weeklyServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "weekly progress not found")}, nil)

	c, w := newGinContext(http.MethodPatch, "/weekly/missing/commentary", []byte(`{"highlights":"good week"}`))
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.UpdateCommentary(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestWeeklyHandlerReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exports := &reportExporterMock{report: &service.ExportedReport{
		Content:     []byte("Week,Year\n12,2026\n"),
		ContentType: "text/csv",
		Filename:    "progress-student-1.csv",
	}}
	handler := NewWeeklyHandler(&weeklyServiceMock{}, exports)

	c, w := newGinContext(http.MethodGet, "/students/student-1/report?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "student-1"}}

	handler.Report(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "progress-student-1.csv")
	require.True(t, strings.HasPrefix(w.Body.String(), "Week,Year"))
}

func TestWeeklyHandlerReportRejectsUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exports := &reportExporterMock{err: appErrors.Clone(appErrors.ErrValidation, `unsupported export format "xml"`)}
	handler := NewWeeklyHandler(&weeklyServiceMock{}, exports)

	c, w := newGinContext(http.MethodGet, "/students/student-1/report?format=xml", nil)
	c.Params = gin.Params{{Key: "id", Value: "student-1"}}

	handler.Report(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
