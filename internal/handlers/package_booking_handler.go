package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/internal/services"
)

// BookingAllocator creates and edits bookings
type BookingAllocator interface {
	CreateBooking(ctx context.Context, draft *models.BookingDraft, actor models.Actor) (*models.PackageBooking, error)
	UpdateBooking(ctx context.Context, id uuid.UUID, change *models.BookingChange, actor models.Actor) (*models.PackageBooking, error)
}

// BookingLifecycle reads and cancels bookings
type BookingLifecycle interface {
	GetBooking(ctx context.Context, id uuid.UUID) (*models.PackageBooking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.PackageBooking, error)
	CancelBooking(ctx context.Context, id uuid.UUID, reason string, actor models.Actor) (*models.PackageBooking, error)
}

// BookingHistory reads the audit trail of a booking
type BookingHistory interface {
	GetBookingHistory(ctx context.Context, bookingID uuid.UUID) ([]services.AuditEntry, error)
}

// PackageBookingHandler handles package booking endpoints
type PackageBookingHandler struct {
	allocator BookingAllocator
	lifecycle BookingLifecycle
	history   BookingHistory
	logger    *logrus.Logger
}

// NewPackageBookingHandler creates a new PackageBookingHandler
func NewPackageBookingHandler(
	allocator BookingAllocator,
	lifecycle BookingLifecycle,
	history BookingHistory,
	logger *logrus.Logger,
) *PackageBookingHandler {
	return &PackageBookingHandler{
		allocator: allocator,
		lifecycle: lifecycle,
		history:   history,
		logger:    logger,
	}
}

// CancelBookingRequest is the optional body of the cancel endpoint
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// ============================================================================
// CREATE - POST /api/v1/bookings
// ============================================================================

// CreateBooking creates a package booking
// @Summary Create package booking
// @Description Allocates rooms according to the package policy. room_ids is required for room-type packages and rejected for whole-property packages.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body models.CreatePackageBookingRequest true "Booking request"
// @Success 201 {object} models.PackageBooking
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 404 {object} ErrorResponse "Package or room not found"
// @Failure 409 {object} ErrorResponse "Lost a concurrent allocation"
// @Failure 422 {object} ErrorResponse "No rooms available"
// @Router /bookings [post]
func (h *PackageBookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreatePackageBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    "INVALID_BODY",
		})
		return
	}

	draft, err := req.ToDraft()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	booking, err := h.allocator.CreateBooking(c.Request.Context(), draft, actorFromContext(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// ============================================================================
// READ - GET /api/v1/bookings, GET /api/v1/bookings/:id
// ============================================================================

// GetBooking handles GET /api/v1/bookings/:id
func (h *PackageBookingHandler) GetBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.lifecycle.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ListBookings handles GET /api/v1/bookings?from=&to=&status=&limit=&offset=
func (h *PackageBookingHandler) ListBookings(c *gin.Context) {
	var filter models.BookingFilter

	from, to := c.Query("from"), c.Query("to")
	if from != "" || to != "" {
		window, err := models.ParseStayInterval(from, to)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		filter.Window = &window
	}

	if s := c.Query("status"); s != "" {
		status, err := models.ParseBookingStatus(s)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		filter.Status = &status
	}

	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	bookings, err := h.lifecycle.ListBookings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if bookings == nil {
		bookings = []models.PackageBooking{}
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"total":    len(bookings),
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

// GetBookingHistory handles GET /api/v1/bookings/:id/history
func (h *PackageBookingHandler) GetBookingHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.history.GetBookingHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking_id": id,
		"history":    entries,
	})
}

// ============================================================================
// EDIT - PUT /api/v1/bookings/:id
// ============================================================================

// UpdateBooking changes the dates and/or rooms of a booked booking
// @Summary Edit package booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body models.UpdatePackageBookingRequest true "New dates and/or rooms"
// @Success 200 {object} models.PackageBooking
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Booking not editable or lost a concurrent allocation"
// @Failure 422 {object} ErrorResponse "No rooms available"
// @Router /bookings/{id} [put]
func (h *PackageBookingHandler) UpdateBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdatePackageBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    "INVALID_BODY",
		})
		return
	}

	current, err := h.lifecycle.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	change, err := req.ToChange(current.Interval())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if change.ExpectedVersion == 0 {
		// partial dates were resolved against this read
		change.ExpectedVersion = current.Version
	}

	booking, err := h.allocator.UpdateBooking(c.Request.Context(), id, change, actorFromContext(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ============================================================================
// CANCEL - POST /api/v1/bookings/:id/cancel
// ============================================================================

// CancelBooking cancels a booked booking
func (h *PackageBookingHandler) CancelBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CancelBookingRequest
	_ = c.ShouldBindJSON(&req) // Reason is optional

	booking, err := h.lifecycle.CancelBooking(c.Request.Context(), id, req.Reason, actorFromContext(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled successfully",
		"booking": booking,
	})
}
