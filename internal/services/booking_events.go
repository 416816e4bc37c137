package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/pkg/events"
)

// BookingEvent is the payload published for every committed booking mutation
type BookingEvent struct {
	BookingID     uuid.UUID            `json:"booking_id"`
	PackageID     uuid.UUID            `json:"package_id"`
	Status        models.BookingStatus `json:"status"`
	CheckIn       string               `json:"check_in"`
	CheckOut      string               `json:"check_out"`
	AssignedRooms []uuid.UUID          `json:"assigned_rooms"`
	Version       int                  `json:"version"`
	ActorID       uuid.UUID            `json:"actor_id"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// Audit actions, one per routing key
var auditActions = map[string]string{
	events.BookingCreated:   "BOOKING_CREATED",
	events.BookingUpdated:   "BOOKING_UPDATED",
	events.BookingCancelled: "BOOKING_CANCELLED",
	events.BookingCheckedIn: "BOOKING_CHECKED_IN",
}

// bookingRecorder publishes events and writes audit rows after a commit.
// Failures are logged and never returned: the booking is already committed.
type bookingRecorder struct {
	publisher EventPublisher
	auditor   BookingAuditor
	logger    *logrus.Logger
}

func newBookingRecorder(publisher EventPublisher, auditor BookingAuditor, logger *logrus.Logger) *bookingRecorder {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &bookingRecorder{publisher: publisher, auditor: auditor, logger: logger}
}

func (r *bookingRecorder) record(ctx context.Context, key string, booking *models.PackageBooking, actor models.Actor, details map[string]interface{}) {
	event := BookingEvent{
		BookingID:     booking.ID,
		PackageID:     booking.PackageID,
		Status:        booking.Status,
		CheckIn:       booking.CheckIn.Format(models.DateLayout),
		CheckOut:      booking.CheckOut.Format(models.DateLayout),
		AssignedRooms: booking.AssignedRooms,
		Version:       booking.Version,
		ActorID:       actor.UserID,
		OccurredAt:    time.Now().UTC(),
	}

	if err := r.publisher.PublishJSON(ctx, key, event); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id":  booking.ID,
			"routing_key": key,
		}).Warn("Failed to publish booking event")
	}

	if r.auditor == nil {
		return
	}
	err := r.auditor.LogBookingEvent(ctx, BookingAuditEvent{
		BookingID: booking.ID,
		Action:    auditActions[key],
		Actor:     actor,
		Details:   details,
	})
	if err != nil {
		r.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Failed to write booking audit log")
	}
}
