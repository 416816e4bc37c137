package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayline/hotel-admin-backend/internal/models"
)

// AvailabilityService computes which rooms are free for a stay. It reads
// occupancy from the booking ledger only; room status flags are ignored.
type AvailabilityService struct {
	rooms    RoomInventory
	packages PackageCatalog
	ledger   BookingLedger
	logger   *logrus.Logger
}

// NewAvailabilityService creates a new AvailabilityService
func NewAvailabilityService(rooms RoomInventory, packages PackageCatalog, ledger BookingLedger, logger *logrus.Logger) *AvailabilityService {
	return &AvailabilityService{
		rooms:    rooms,
		packages: packages,
		ledger:   ledger,
		logger:   logger,
	}
}

// FreeRooms returns the rooms not in busy that the policy admits, ordered by
// room number.
func FreeRooms(rooms []models.Room, busy []uuid.UUID, policy models.BookingPolicy) []models.Room {
	busySet := make(map[uuid.UUID]struct{}, len(busy))
	for _, id := range busy {
		busySet[id] = struct{}{}
	}

	free := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if _, taken := busySet[room.ID]; taken {
			continue
		}
		if policy != nil && !policy.Admits(room.Type) {
			continue
		}
		free = append(free, room)
	}

	sort.SliceStable(free, func(i, j int) bool { return free[i].Number < free[j].Number })
	return free
}

// AvailableRooms returns the rooms free for interval under policy. The
// booking identified by exclude does not count as occupying its rooms.
func (s *AvailabilityService) AvailableRooms(
	ctx context.Context,
	interval models.StayInterval,
	policy models.BookingPolicy,
	exclude uuid.UUID,
) ([]models.Room, error) {
	if err := interval.Validate(); err != nil {
		return nil, err
	}

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	busy, err := s.ledger.BusyRoomIDs(ctx, interval, exclude)
	if err != nil {
		return nil, err
	}

	free := FreeRooms(rooms, busy, policy)

	s.logger.WithFields(logrus.Fields{
		"check_in":   interval.CheckIn.Format(models.DateLayout),
		"check_out":  interval.CheckOut.Format(models.DateLayout),
		"policy":     policyKind(policy),
		"total":      len(rooms),
		"busy":       len(busy),
		"free":       len(free),
		"exclude_id": exclude,
	}).Debug("Computed room availability")

	return free, nil
}

// QueryAvailableRooms returns the rooms a package can book for interval
func (s *AvailabilityService) QueryAvailableRooms(ctx context.Context, packageID uuid.UUID, interval models.StayInterval) ([]models.Room, error) {
	if err := interval.Validate(); err != nil {
		return nil, err
	}

	pkg, err := s.packages.GetPackageByID(ctx, packageID)
	if err != nil {
		return nil, err
	}

	return s.AvailableRooms(ctx, interval, pkg.Policy, uuid.Nil)
}

// ListRooms returns the full room inventory
func (s *AvailabilityService) ListRooms(ctx context.Context) ([]models.Room, error) {
	return s.rooms.ListRooms(ctx)
}

// ListPackages returns every package offering
func (s *AvailabilityService) ListPackages(ctx context.Context) ([]models.PackageOffering, error) {
	return s.packages.ListPackages(ctx)
}

// GetPackage returns a single package offering
func (s *AvailabilityService) GetPackage(ctx context.Context, id uuid.UUID) (*models.PackageOffering, error) {
	return s.packages.GetPackageByID(ctx, id)
}

func policyKind(policy models.BookingPolicy) string {
	if policy == nil {
		return "none"
	}
	return string(policy.Kind())
}
