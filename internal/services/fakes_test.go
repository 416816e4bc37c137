package services

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/pkg/storage"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// memoryInventory serves rooms and packages from memory
type memoryInventory struct {
	rooms    []models.Room
	packages map[uuid.UUID]*models.PackageOffering
}

func newMemoryInventory() *memoryInventory {
	return &memoryInventory{packages: make(map[uuid.UUID]*models.PackageOffering)}
}

func (m *memoryInventory) addRoom(number string, roomType models.RoomType) models.Room {
	room := models.Room{ID: uuid.New(), Number: number, Type: roomType}
	m.rooms = append(m.rooms, room)
	return room
}

func (m *memoryInventory) addPackage(title string, policy models.BookingPolicy) *models.PackageOffering {
	pkg := &models.PackageOffering{ID: uuid.New(), Title: title, Policy: policy}
	m.packages[pkg.ID] = pkg
	return pkg
}

func (m *memoryInventory) ListRooms(ctx context.Context) ([]models.Room, error) {
	return append([]models.Room(nil), m.rooms...), nil
}

func (m *memoryInventory) GetRoomsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Room, error) {
	var found []models.Room
	for _, room := range m.rooms {
		for _, id := range ids {
			if room.ID == id {
				found = append(found, room)
			}
		}
	}
	return found, nil
}

func (m *memoryInventory) GetPackageByID(ctx context.Context, id uuid.UUID) (*models.PackageOffering, error) {
	pkg, ok := m.packages[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "package", ID: id.String()}
	}
	return pkg, nil
}

func (m *memoryInventory) ListPackages(ctx context.Context) ([]models.PackageOffering, error) {
	list := make([]models.PackageOffering, 0, len(m.packages))
	for _, pkg := range m.packages {
		list = append(list, *pkg)
	}
	return list, nil
}

// memoryLedger re-validates overlaps under a lock the way the SQL ledger
// does under row locks
type memoryLedger struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.PackageBooking
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{bookings: make(map[uuid.UUID]*models.PackageBooking)}
}

func (l *memoryLedger) put(b models.PackageBooking) *models.PackageBooking {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Version == 0 {
		b.Version = 1
	}
	l.bookings[b.ID] = &b
	cp := b
	return &cp
}

func (l *memoryLedger) snapshot(id uuid.UUID) *models.PackageBooking {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.bookings[id]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

func (l *memoryLedger) GetByID(ctx context.Context, id uuid.UUID) (*models.PackageBooking, error) {
	if b := l.snapshot(id); b != nil {
		return b, nil
	}
	return nil, &models.NotFoundError{Entity: "booking", ID: id.String()}
}

func (l *memoryLedger) List(ctx context.Context, filter models.BookingFilter) ([]models.PackageBooking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var list []models.PackageBooking
	for _, b := range l.bookings {
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		if filter.Window != nil && !b.Interval().Overlaps(*filter.Window) {
			continue
		}
		list = append(list, *b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CheckIn.Before(list[j].CheckIn) })
	return list, nil
}

func (l *memoryLedger) busyLocked(interval models.StayInterval, exclude uuid.UUID) map[uuid.UUID]struct{} {
	busy := make(map[uuid.UUID]struct{})
	for _, b := range l.bookings {
		if b.ID == exclude || !b.Status.IsActive() || !b.Interval().Overlaps(interval) {
			continue
		}
		for _, id := range b.AssignedRooms {
			busy[id] = struct{}{}
		}
	}
	return busy
}

func (l *memoryLedger) BusyRoomIDs(ctx context.Context, interval models.StayInterval, exclude uuid.UUID) ([]uuid.UUID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	busy := l.busyLocked(interval, exclude)
	ids := make([]uuid.UUID, 0, len(busy))
	for id := range busy {
		ids = append(ids, id)
	}
	return ids, nil
}

func (l *memoryLedger) ReferencedDocumentRefs(ctx context.Context) (map[string]struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	refs := make(map[string]struct{})
	for _, b := range l.bookings {
		if b.IdentityDocumentRef != nil {
			refs[*b.IdentityDocumentRef] = struct{}{}
		}
		if b.GuestPhotoRef != nil {
			refs[*b.GuestPhotoRef] = struct{}{}
		}
	}
	return refs, nil
}

func (l *memoryLedger) conflictLocked(id uuid.UUID, interval models.StayInterval, rooms models.UUIDArray) error {
	busy := l.busyLocked(interval, id)
	for _, room := range rooms {
		if _, taken := busy[room]; taken {
			return &models.ConflictError{BookingID: id, Message: "room " + room.String() + " was taken by a concurrent booking"}
		}
	}
	return nil
}

func (l *memoryLedger) Create(ctx context.Context, booking *models.PackageBooking) (*models.PackageBooking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.conflictLocked(booking.ID, booking.Interval(), booking.AssignedRooms); err != nil {
		return nil, err
	}
	saved := *booking
	saved.Version = 1
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	l.bookings[saved.ID] = &saved
	cp := saved
	return &cp, nil
}

func (l *memoryLedger) UpdateAllocation(ctx context.Context, id uuid.UUID, expectedVersion int, interval models.StayInterval, rooms models.UUIDArray) (*models.PackageBooking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.bookings[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "booking", ID: id.String()}
	}
	if b.Status != models.BookingStatusBooked {
		return nil, &models.InvalidStateError{BookingID: id, Current: b.Status, Operation: "edit"}
	}
	if b.Version != expectedVersion {
		return nil, &models.ConflictError{BookingID: id, Message: "booking was modified concurrently"}
	}
	if err := l.conflictLocked(id, interval, rooms); err != nil {
		return nil, err
	}
	b.CheckIn, b.CheckOut = interval.CheckIn, interval.CheckOut
	b.AssignedRooms = rooms
	b.Version++
	cp := *b
	return &cp, nil
}

func (l *memoryLedger) Cancel(ctx context.Context, id uuid.UUID) (*models.PackageBooking, error) {
	return l.transition(id, models.BookingStatusCancelled, "cancel", func(b *models.PackageBooking) {
		now := time.Now()
		b.CancelledAt = &now
	})
}

func (l *memoryLedger) CheckIn(ctx context.Context, id uuid.UUID, docs models.CheckInDocuments) (*models.PackageBooking, error) {
	return l.transition(id, models.BookingStatusCheckedIn, "check in", func(b *models.PackageBooking) {
		now := time.Now()
		identity, photo := docs.IdentityDocumentRef, docs.GuestPhotoRef
		b.IdentityDocumentRef = &identity
		b.GuestPhotoRef = &photo
		b.CheckedInAt = &now
	})
}

func (l *memoryLedger) transition(id uuid.UUID, next models.BookingStatus, op string, apply func(*models.PackageBooking)) (*models.PackageBooking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.bookings[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "booking", ID: id.String()}
	}
	if !b.Status.CanTransitionTo(next) {
		return nil, &models.InvalidStateError{BookingID: id, Current: b.Status, Operation: op}
	}
	apply(b)
	b.Status = next
	b.Version++
	cp := *b
	return &cp, nil
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	args := m.Called(ctx, key, v)
	return args.Error(0)
}

// MockBookingAuditor is a mock implementation of BookingAuditor
type MockBookingAuditor struct {
	mock.Mock
}

func (m *MockBookingAuditor) LogBookingEvent(ctx context.Context, event BookingAuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// memoryStore is an in-memory DocumentStore
type memoryStore struct {
	mu      sync.Mutex
	objects map[string]storage.ObjectInfo
	putErr  error
	puts    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string]storage.ObjectInfo)}
}

func (s *memoryStore) Put(ctx context.Context, obj storage.Object) (*storage.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return nil, s.putErr
	}
	n, err := io.Copy(io.Discard, obj.Body)
	if err != nil {
		return nil, err
	}
	ref := obj.Kind + "/" + uuid.NewString()
	s.objects[ref] = storage.ObjectInfo{Ref: ref, Size: n, ModTime: time.Now()}
	return &storage.StoredObject{Ref: ref, Size: n, Checksum: "test"}, nil
}

func (s *memoryStore) Delete(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, ref)
	return nil
}

func (s *memoryStore) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]storage.ObjectInfo, 0, len(s.objects))
	for _, obj := range s.objects {
		list = append(list, obj)
	}
	return list, nil
}

func (s *memoryStore) has(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[ref]
	return ok
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
