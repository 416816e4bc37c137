package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stayline/hotel-admin-backend/internal/services"
)

// MaintenanceRunner exposes the housekeeping jobs to administrators
type MaintenanceRunner interface {
	SweepOrphanedDocuments(ctx context.Context) (*services.SweepResult, error)
	GetJobStatus() map[string]interface{}
}

// MaintenanceHandler handles admin maintenance endpoints
type MaintenanceHandler struct {
	maintenance MaintenanceRunner
	logger      *logrus.Logger
}

// NewMaintenanceHandler creates a new MaintenanceHandler
func NewMaintenanceHandler(maintenance MaintenanceRunner, logger *logrus.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{maintenance: maintenance, logger: logger}
}

// GetJobStatus handles GET /api/v1/admin/maintenance/jobs
func (h *MaintenanceHandler) GetJobStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.maintenance.GetJobStatus())
}

// SweepDocuments handles POST /api/v1/admin/maintenance/sweep-documents
func (h *MaintenanceHandler) SweepDocuments(c *gin.Context) {
	result, err := h.maintenance.SweepOrphanedDocuments(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"deleted": result.Deleted,
		"failed":  result.Failed,
	}).Info("Manual document sweep finished")

	c.JSON(http.StatusOK, result)
}
