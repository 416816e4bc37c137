package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockMaintenance is a mock implementation of MaintenanceRunner
type MockMaintenance struct {
	mock.Mock
}

func (m *MockMaintenance) SweepOrphanedDocuments(ctx context.Context) (*services.SweepResult, error) {
	args := m.Called(ctx)
	result, _ := args.Get(0).(*services.SweepResult)
	return result, args.Error(1)
}

func (m *MockMaintenance) GetJobStatus() map[string]interface{} {
	args := m.Called()
	return args.Get(0).(map[string]interface{})
}

func TestMaintenanceHandler(t *testing.T) {
	maintenance := new(MockMaintenance)
	maintenance.On("GetJobStatus").Return(map[string]interface{}{"running": true, "job_count": 2})
	maintenance.On("SweepOrphanedDocuments", mock.Anything).Return(&services.SweepResult{Scanned: 4, Deleted: 1}, nil).Once()
	maintenance.On("SweepOrphanedDocuments", mock.Anything).
		Return(nil, &models.InfrastructureError{Op: "list document refs", Err: errors.New("connection refused")})

	h := NewMaintenanceHandler(maintenance, setupTestLogger())
	router := setupTestRouter(uuid.New())
	router.GET("/maintenance/jobs", h.GetJobStatus)
	router.POST("/maintenance/sweep-documents", h.SweepDocuments)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/maintenance/jobs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"job_count":2`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/maintenance/sweep-documents", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":1`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/maintenance/sweep-documents", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
