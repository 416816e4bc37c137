package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/pkg/events"
)

// BookingLifecycleService governs status transitions that do not involve
// room allocation
type BookingLifecycleService struct {
	ledger   BookingLedger
	recorder *bookingRecorder
	logger   *logrus.Logger
}

// NewBookingLifecycleService creates a new BookingLifecycleService
func NewBookingLifecycleService(ledger BookingLedger, publisher EventPublisher, auditor BookingAuditor, logger *logrus.Logger) *BookingLifecycleService {
	return &BookingLifecycleService{
		ledger:   ledger,
		recorder: newBookingRecorder(publisher, auditor, logger),
		logger:   logger,
	}
}

// GetBooking returns a booking by id
func (s *BookingLifecycleService) GetBooking(ctx context.Context, id uuid.UUID) (*models.PackageBooking, error) {
	return s.ledger.GetByID(ctx, id)
}

// ListBookings returns bookings matching filter
func (s *BookingLifecycleService) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.PackageBooking, error) {
	if filter.Window != nil {
		if err := filter.Window.Validate(); err != nil {
			return nil, err
		}
	}
	return s.ledger.List(ctx, filter)
}

// CancelBooking cancels a booked booking. Cancelling anything else,
// including an already cancelled booking, fails with InvalidStateError.
func (s *BookingLifecycleService) CancelBooking(ctx context.Context, id uuid.UUID, reason string, actor models.Actor) (*models.PackageBooking, error) {
	current, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.CanBeCancelled() {
		return nil, &models.InvalidStateError{BookingID: id, Current: current.Status, Operation: "cancel"}
	}

	cancelled, err := s.ledger.Cancel(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", id).Warn("Failed to cancel booking")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": id,
		"rooms":      len(cancelled.AssignedRooms),
	}).Info("Package booking cancelled")

	details := map[string]interface{}{}
	if reason != "" {
		details["reason"] = reason
	}
	s.recorder.record(ctx, events.BookingCancelled, cancelled, actor, details)

	return cancelled, nil
}
