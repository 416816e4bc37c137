package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/pkg/events"
	"github.com/stayline/hotel-admin-backend/pkg/storage"
)

// Document kinds captured at check-in
const (
	DocumentKindIdentity   = "identity_document"
	DocumentKindGuestPhoto = "guest_photo"
)

// CheckInService captures the guest's identity documents and moves the
// booking to checked_in
type CheckInService struct {
	ledger    BookingLedger
	documents DocumentStore
	recorder  *bookingRecorder
	logger    *logrus.Logger
}

// NewCheckInService creates a new CheckInService
func NewCheckInService(ledger BookingLedger, documents DocumentStore, publisher EventPublisher, auditor BookingAuditor, logger *logrus.Logger) *CheckInService {
	return &CheckInService{
		ledger:    ledger,
		documents: documents,
		recorder:  newBookingRecorder(publisher, auditor, logger),
		logger:    logger,
	}
}

// CheckIn records both document references and flips the status in one
// atomic ledger update. A caller retrying after an unacknowledged attempt
// should read the booking first: a second call on a checked-in booking
// fails with InvalidStateError.
func (s *CheckInService) CheckIn(ctx context.Context, id uuid.UUID, docs models.CheckInDocuments, actor models.Actor) (*models.PackageBooking, error) {
	if err := docs.Validate(); err != nil {
		return nil, err
	}

	current, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.CanCheckIn() {
		return nil, &models.InvalidStateError{BookingID: id, Current: current.Status, Operation: "check in"}
	}

	booking, err := s.ledger.CheckIn(ctx, id, docs)
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", id).Warn("Failed to check in booking")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": id,
		"guest_name": booking.GuestName,
	}).Info("Guest checked in")

	s.recorder.record(ctx, events.BookingCheckedIn, booking, actor, map[string]interface{}{
		"identity_document_ref": docs.IdentityDocumentRef,
		"guest_photo_ref":       docs.GuestPhotoRef,
	})

	return booking, nil
}

// CheckInWithUploads stores both uploads and then checks the booking in.
// Stored objects are removed again when the check-in does not commit.
func (s *CheckInService) CheckInWithUploads(ctx context.Context, id uuid.UUID, identity, photo *storage.Object, actor models.Actor) (*models.PackageBooking, error) {
	if identity == nil || identity.Body == nil {
		return nil, models.ErrInvalidField("identity_document", "identity document is required for check-in")
	}
	if photo == nil || photo.Body == nil {
		return nil, models.ErrInvalidField("guest_photo", "guest photo is required for check-in")
	}

	current, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.CanCheckIn() {
		return nil, &models.InvalidStateError{BookingID: id, Current: current.Status, Operation: "check in"}
	}

	identity.Kind = DocumentKindIdentity
	storedIdentity, err := s.documents.Put(ctx, *identity)
	if err != nil {
		return nil, &models.InfrastructureError{Op: "store identity document", Err: err}
	}

	photo.Kind = DocumentKindGuestPhoto
	storedPhoto, err := s.documents.Put(ctx, *photo)
	if err != nil {
		s.discard(ctx, id, storedIdentity.Ref)
		return nil, &models.InfrastructureError{Op: "store guest photo", Err: err}
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":        id,
		"identity_checksum": storedIdentity.Checksum,
		"photo_checksum":    storedPhoto.Checksum,
	}).Debug("Check-in documents stored")

	booking, err := s.CheckIn(ctx, id, models.CheckInDocuments{
		IdentityDocumentRef: storedIdentity.Ref,
		GuestPhotoRef:       storedPhoto.Ref,
	}, actor)
	if err != nil {
		s.discard(ctx, id, storedIdentity.Ref, storedPhoto.Ref)
		return nil, err
	}

	return booking, nil
}

// discard deletes stored objects that no booking references. Leftovers are
// picked up by the document sweep.
func (s *CheckInService) discard(ctx context.Context, bookingID uuid.UUID, refs ...string) {
	for _, ref := range refs {
		if err := s.documents.Delete(context.WithoutCancel(ctx), ref); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"booking_id": bookingID,
				"ref":        ref,
			}).Warn("Failed to delete orphaned check-in document")
		}
	}
}
