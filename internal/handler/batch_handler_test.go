package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-progress-api/internal/models"
	appErrors "github.com/noah-isme/sis-progress-api/pkg/errors"
	"github.com/noah-isme/sis-progress-api/pkg/response"
)

type batchServiceMock struct {
	result models.BatchResult
	err    error
}

func (m *batchServiceMock) RunDue(context.Context) (models.BatchResult, error) {
	return m.result, m.err
}

func (m *batchServiceMock) RunFull(context.Context) (models.BatchResult, error) {
	return m.result, m.err
}

func (m *batchServiceMock) RunForClassroom(context.Context, string) (models.BatchResult, error) {
	return m.result, m.err
}

func TestBatchHandlerRecalculateDue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &batchServiceMock{result: models.BatchResult{Processed: 44, Errors: 1, Total: 45}}
	handler := NewBatchHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/jobs/recalculate-due", nil)

	handler.RecalculateDue(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	require.EqualValues(t, 44, data["processed"])
	require.EqualValues(t, 1, data["errors"])
	require.EqualValues(t, 45, data["total"])
}

func TestBatchHandlerRecalculateDueFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBatchHandler(&batchServiceMock{err: appErrors.Clone(appErrors.ErrInternal, "selecting due students")})

	c, w := newGinContext(http.MethodPost, "/jobs/recalculate-due", nil)

	handler.RecalculateDue(c)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBatchHandlerRecalculateClassroom(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &batchServiceMock{result: models.BatchResult{Processed: 7, Total: 7}}
	handler := NewBatchHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/classrooms/class-7a/recalculate", nil)
	c.Params = gin.Params{{Key: "id", Value: "class-7a"}}

	handler.RecalculateClassroom(c)
	require.Equal(t, http.StatusOK, w.Code)
}
