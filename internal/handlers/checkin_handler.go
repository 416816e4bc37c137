package handlers

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/pkg/storage"
)

// GuestCheckIn checks a guest in with their uploaded documents
type GuestCheckIn interface {
	CheckInWithUploads(ctx context.Context, id uuid.UUID, identity, photo *storage.Object, actor models.Actor) (*models.PackageBooking, error)
}

// UploadLimits restricts the files accepted at check-in
type UploadLimits struct {
	MaxBytes            int64
	AllowedContentTypes []string
}

// CheckInHandler handles the front desk check-in endpoint
type CheckInHandler struct {
	checkIn GuestCheckIn
	limits  UploadLimits
	logger  *logrus.Logger
}

// NewCheckInHandler creates a new CheckInHandler
func NewCheckInHandler(checkIn GuestCheckIn, limits UploadLimits, logger *logrus.Logger) *CheckInHandler {
	return &CheckInHandler{
		checkIn: checkIn,
		limits:  limits,
		logger:  logger,
	}
}

// CheckIn handles POST /api/v1/bookings/:id/check-in
// @Summary Check in guest
// @Description Multipart upload of identity_document and guest_photo. Both are required.
// @Tags Bookings
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Booking ID"
// @Param identity_document formData file true "Identity document scan"
// @Param guest_photo formData file true "Guest photo"
// @Success 200 {object} models.PackageBooking
// @Failure 400 {object} ErrorResponse "Missing or invalid document"
// @Failure 409 {object} ErrorResponse "Booking is not in booked status"
// @Router /bookings/{id}/check-in [post]
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// Two files plus form overhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*h.limits.MaxBytes+1<<20)

	identityHeader, err := c.FormFile("identity_document")
	if err != nil {
		respondError(c, h.logger, models.ErrInvalidField("identity_document", "identity document is required for check-in"))
		return
	}
	photoHeader, err := c.FormFile("guest_photo")
	if err != nil {
		respondError(c, h.logger, models.ErrInvalidField("guest_photo", "guest photo is required for check-in"))
		return
	}

	if err := h.checkUpload("identity_document", identityHeader); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.checkUpload("guest_photo", photoHeader); err != nil {
		respondError(c, h.logger, err)
		return
	}

	identityFile, err := identityHeader.Open()
	if err != nil {
		respondError(c, h.logger, fmt.Errorf("failed to open identity document: %w", err))
		return
	}
	defer identityFile.Close()

	photoFile, err := photoHeader.Open()
	if err != nil {
		respondError(c, h.logger, fmt.Errorf("failed to open guest photo: %w", err))
		return
	}
	defer photoFile.Close()

	booking, err := h.checkIn.CheckInWithUploads(c.Request.Context(), id,
		&storage.Object{
			Filename:    identityHeader.Filename,
			ContentType: identityHeader.Header.Get("Content-Type"),
			Body:        identityFile,
		},
		&storage.Object{
			Filename:    photoHeader.Filename,
			ContentType: photoHeader.Header.Get("Content-Type"),
			Body:        photoFile,
		},
		actorFromContext(c),
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Guest checked in successfully",
		"booking": booking,
	})
}

func (h *CheckInHandler) checkUpload(field string, header *multipart.FileHeader) error {
	if header.Size == 0 {
		return models.ErrInvalidField(field, "file is empty")
	}
	if h.limits.MaxBytes > 0 && header.Size > h.limits.MaxBytes {
		return models.ErrInvalidField(field, fmt.Sprintf("file exceeds the %d MB limit", h.limits.MaxBytes>>20))
	}
	if len(h.limits.AllowedContentTypes) == 0 {
		return nil
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(header.Header.Get("Content-Type"), ";")[0]))
	for _, allowed := range h.limits.AllowedContentTypes {
		if contentType == strings.ToLower(allowed) {
			return nil
		}
	}
	return models.ErrInvalidField(field, "unsupported file type "+contentType)
}
