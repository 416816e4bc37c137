package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayline/hotel-admin-backend/internal/middleware"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/internal/utils"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// respondError maps the booking error taxonomy onto HTTP responses
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var (
		validationErr   *models.ValidationError
		notFoundErr     *models.NotFoundError
		invalidStateErr *models.InvalidStateError
		conflictErr     *models.ConflictError
		noAvailErr      *models.NoAvailabilityError
		infraErr        *models.InfrastructureError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Error(),
			Code:    "VALIDATION_FAILED",
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: notFoundErr.Error(),
			Code:    "NOT_FOUND",
		})
	case errors.As(err, &invalidStateErr):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "invalid_state",
			Message: invalidStateErr.Error(),
			Code:    "INVALID_STATE",
		})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "allocation_conflict",
			Message: conflictErr.Error(),
			Code:    "ALLOCATION_CONFLICT",
		})
	case errors.As(err, &noAvailErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "no_availability",
			Message: noAvailErr.Error(),
			Code:    "NO_AVAILABILITY",
		})
	case errors.As(err, &infraErr):
		logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Storage unavailable")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "service_unavailable",
			Message: "Booking storage is temporarily unavailable. Please try again.",
			Code:    "STORAGE_UNAVAILABLE",
		})
	default:
		logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
		})
	}
}

// parseIDParam reads a UUID path parameter, writing a 400 response on failure
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid " + name + " format",
			Code:    "INVALID_ID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// actorFromContext identifies the staff member and terminal behind a request
func actorFromContext(c *gin.Context) models.Actor {
	actor := models.Actor{
		IPAddress: utils.ClientIP(c),
		UserAgent: utils.GetUserAgent(c),
	}
	if userCtx, ok := middleware.GetUserContext(c); ok {
		actor.UserID = userCtx.UserID
	}
	return actor
}
