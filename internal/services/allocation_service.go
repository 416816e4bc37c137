package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/pkg/events"
)

// AllocationService attaches rooms to new and edited bookings according to
// the package's booking policy and commits them through the ledger
type AllocationService struct {
	availability *AvailabilityService
	rooms        RoomInventory
	packages     PackageCatalog
	ledger       BookingLedger
	recorder     *bookingRecorder
	logger       *logrus.Logger
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	availability *AvailabilityService,
	rooms RoomInventory,
	packages PackageCatalog,
	ledger BookingLedger,
	publisher EventPublisher,
	auditor BookingAuditor,
	logger *logrus.Logger,
) *AllocationService {
	return &AllocationService{
		availability: availability,
		rooms:        rooms,
		packages:     packages,
		ledger:       ledger,
		recorder:     newBookingRecorder(publisher, auditor, logger),
		logger:       logger,
	}
}

// ============================================================================
// CREATE
// ============================================================================

// CreateBooking allocates rooms for draft and commits it in status booked
func (s *AllocationService) CreateBooking(ctx context.Context, draft *models.BookingDraft, actor models.Actor) (*models.PackageBooking, error) {
	if err := draft.Interval.Validate(); err != nil {
		return nil, err
	}

	pkg, err := s.packages.GetPackageByID(ctx, draft.PackageID)
	if err != nil {
		return nil, err
	}

	rooms, err := s.selectRooms(ctx, pkg.Policy, draft.Interval, draft.RoomIDs, uuid.Nil)
	if err != nil {
		return nil, err
	}

	booking := &models.PackageBooking{
		ID:            uuid.New(),
		GuestName:     draft.Guest.Name,
		GuestContact:  draft.Guest.Contact,
		CheckIn:       draft.Interval.CheckIn,
		CheckOut:      draft.Interval.CheckOut,
		Adults:        draft.Guest.Adults,
		Children:      draft.Guest.Children,
		PackageID:     pkg.ID,
		AssignedRooms: rooms,
		Status:        models.BookingStatusBooked,
	}

	saved, err := s.ledger.Create(ctx, booking)
	if err != nil {
		s.logCommitFailure(err, booking.ID, "create")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": saved.ID,
		"package_id": pkg.ID,
		"policy":     pkg.Policy.Kind(),
		"rooms":      len(saved.AssignedRooms),
		"check_in":   draft.Interval.CheckIn.Format(models.DateLayout),
		"check_out":  draft.Interval.CheckOut.Format(models.DateLayout),
	}).Info("Package booking created")

	s.recorder.record(ctx, events.BookingCreated, saved, actor, map[string]interface{}{
		"package_title": pkg.Title,
		"room_count":    len(saved.AssignedRooms),
	})

	return saved, nil
}

// ============================================================================
// EDIT
// ============================================================================

// UpdateBooking re-validates a booked booking against its new interval and
// rooms and commits the change. Whole-property packages are re-allocated
// from scratch; room-type packages keep their current rooms unless new
// ones are supplied.
func (s *AllocationService) UpdateBooking(ctx context.Context, id uuid.UUID, change *models.BookingChange, actor models.Actor) (*models.PackageBooking, error) {
	current, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.CanBeEdited() {
		return nil, &models.InvalidStateError{BookingID: id, Current: current.Status, Operation: "edit"}
	}
	version := current.Version
	if change.ExpectedVersion != 0 {
		if change.ExpectedVersion != current.Version {
			return nil, &models.ConflictError{
				BookingID: id,
				Message:   fmt.Sprintf("booking %s changed since version %d (now %d); reload and retry", id, change.ExpectedVersion, current.Version),
			}
		}
		version = change.ExpectedVersion
	}

	interval := current.Interval()
	if change.Interval != nil {
		interval = *change.Interval
	}
	if err := interval.Validate(); err != nil {
		return nil, err
	}

	pkg, err := s.packages.GetPackageByID(ctx, current.PackageID)
	if err != nil {
		return nil, err
	}

	candidates := change.RoomIDs
	if _, ok := pkg.Policy.(models.RoomTypePolicy); ok && candidates == nil {
		candidates = current.AssignedRooms
	}

	rooms, err := s.selectRooms(ctx, pkg.Policy, interval, candidates, current.ID)
	if err != nil {
		return nil, err
	}

	saved, err := s.ledger.UpdateAllocation(ctx, id, version, interval, rooms)
	if err != nil {
		s.logCommitFailure(err, id, "edit")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": saved.ID,
		"rooms":      len(saved.AssignedRooms),
		"check_in":   interval.CheckIn.Format(models.DateLayout),
		"check_out":  interval.CheckOut.Format(models.DateLayout),
		"version":    saved.Version,
	}).Info("Package booking updated")

	s.recorder.record(ctx, events.BookingUpdated, saved, actor, map[string]interface{}{
		"previous_check_in":  current.CheckIn.Format(models.DateLayout),
		"previous_check_out": current.CheckOut.Format(models.DateLayout),
		"previous_rooms":     current.AssignedRooms,
	})

	return saved, nil
}

// ============================================================================
// ROOM SELECTION
// ============================================================================

// selectRooms applies the booking policy. It never returns a partial
// selection: either every requested room is valid or the call fails.
func (s *AllocationService) selectRooms(
	ctx context.Context,
	policy models.BookingPolicy,
	interval models.StayInterval,
	candidates []uuid.UUID,
	exclude uuid.UUID,
) (models.UUIDArray, error) {
	switch p := policy.(type) {
	case models.WholePropertyPolicy:
		if len(candidates) > 0 {
			return nil, models.ErrInvalidField("room_ids", "whole-property packages are assigned every free room automatically")
		}
		free, err := s.availability.AvailableRooms(ctx, interval, p, exclude)
		if err != nil {
			return nil, err
		}
		if len(free) == 0 {
			return nil, &models.NoAvailabilityError{
				Message: fmt.Sprintf("no rooms are free between %s and %s",
					interval.CheckIn.Format(models.DateLayout), interval.CheckOut.Format(models.DateLayout)),
			}
		}
		return models.UUIDArray(models.RoomIDs(free)), nil

	case models.RoomTypePolicy:
		return s.validateCandidates(ctx, p, interval, candidates, exclude)

	default:
		return nil, fmt.Errorf("unsupported booking policy %T", policy)
	}
}

func (s *AllocationService) validateCandidates(
	ctx context.Context,
	policy models.RoomTypePolicy,
	interval models.StayInterval,
	candidates []uuid.UUID,
	exclude uuid.UUID,
) (models.UUIDArray, error) {
	if len(candidates) == 0 {
		return nil, models.ErrInvalidField("room_ids", "select at least one room for this package")
	}

	known, err := s.rooms.GetRoomsByIDs(ctx, candidates)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Room, len(known))
	for _, room := range known {
		byID[room.ID] = room
	}

	for _, id := range candidates {
		room, ok := byID[id]
		if !ok {
			return nil, &models.NotFoundError{Entity: "room", ID: id.String()}
		}
		if !policy.Admits(room.Type) {
			return nil, models.ErrInvalidField("room_ids",
				fmt.Sprintf("room %s is a %s room, which this package does not allow", room.Number, room.Type))
		}
	}

	free, err := s.availability.AvailableRooms(ctx, interval, policy, exclude)
	if err != nil {
		return nil, err
	}
	freeSet := make(map[uuid.UUID]struct{}, len(free))
	for _, room := range free {
		freeSet[room.ID] = struct{}{}
	}

	selected := make(models.UUIDArray, 0, len(candidates))
	for _, id := range candidates {
		if _, ok := freeSet[id]; !ok {
			return nil, models.ErrInvalidField("room_ids",
				fmt.Sprintf("room %s is no longer available for the selected dates", byID[id].Number))
		}
		selected = append(selected, id)
	}
	return selected, nil
}

func (s *AllocationService) logCommitFailure(err error, bookingID uuid.UUID, op string) {
	entry := s.logger.WithError(err).WithFields(logrus.Fields{
		"booking_id": bookingID,
		"operation":  op,
	})
	switch {
	case models.IsConflict(err):
		entry.Warn("Booking lost a concurrent allocation race")
	case models.IsDomainError(err):
		entry.Info("Booking rejected at commit")
	default:
		entry.Error("Failed to commit booking")
	}
}
