package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayline/hotel-admin-backend/internal/models"
)

// AvailabilityQuerier serves room and package reads and availability
type AvailabilityQuerier interface {
	QueryAvailableRooms(ctx context.Context, packageID uuid.UUID, interval models.StayInterval) ([]models.Room, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListPackages(ctx context.Context) ([]models.PackageOffering, error)
	GetPackage(ctx context.Context, id uuid.UUID) (*models.PackageOffering, error)
}

// PackageHandler handles room, package and availability endpoints
type PackageHandler struct {
	availability AvailabilityQuerier
	logger       *logrus.Logger
}

// NewPackageHandler creates a new PackageHandler
func NewPackageHandler(availability AvailabilityQuerier, logger *logrus.Logger) *PackageHandler {
	return &PackageHandler{
		availability: availability,
		logger:       logger,
	}
}

// ListRooms handles GET /api/v1/rooms
func (h *PackageHandler) ListRooms(c *gin.Context) {
	rooms, err := h.availability.ListRooms(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rooms": rooms,
		"total": len(rooms),
	})
}

// ListPackages handles GET /api/v1/packages
func (h *PackageHandler) ListPackages(c *gin.Context) {
	packages, err := h.availability.ListPackages(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"packages": packages,
		"total":    len(packages),
	})
}

// GetPackage handles GET /api/v1/packages/:id
func (h *PackageHandler) GetPackage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	pkg, err := h.availability.GetPackage(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, pkg)
}

// GetAvailability handles GET /api/v1/packages/:id/availability
// @Summary Available rooms for a package
// @Description Rooms free for the whole stay that the package's booking policy admits
// @Tags Packages
// @Produce json
// @Param id path string true "Package ID"
// @Param check_in query string true "Check-in date (YYYY-MM-DD)"
// @Param check_out query string true "Check-out date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /packages/{id}/availability [get]
func (h *PackageHandler) GetAvailability(c *gin.Context) {
	packageID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	interval, err := models.ParseStayInterval(c.Query("check_in"), c.Query("check_out"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	rooms, err := h.availability.QueryAvailableRooms(c.Request.Context(), packageID, interval)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"package_id": packageID,
		"check_in":   interval.CheckIn.Format(models.DateLayout),
		"check_out":  interval.CheckOut.Format(models.DateLayout),
		"nights":     interval.Nights(),
		"rooms":      rooms,
		"total":      len(rooms),
	})
}
