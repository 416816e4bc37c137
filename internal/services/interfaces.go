package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/pkg/storage"
)

// RoomInventory is the read-only catalog of rooms
type RoomInventory interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	GetRoomsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Room, error)
}

// PackageCatalog is the read-only catalog of package offerings
type PackageCatalog interface {
	GetPackageByID(ctx context.Context, id uuid.UUID) (*models.PackageOffering, error)
	ListPackages(ctx context.Context) ([]models.PackageOffering, error)
}

// BookingLedger is the authoritative booking store
type BookingLedger interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.PackageBooking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.PackageBooking, error)
	BusyRoomIDs(ctx context.Context, interval models.StayInterval, exclude uuid.UUID) ([]uuid.UUID, error)
	ReferencedDocumentRefs(ctx context.Context) (map[string]struct{}, error)
	Create(ctx context.Context, booking *models.PackageBooking) (*models.PackageBooking, error)
	UpdateAllocation(ctx context.Context, id uuid.UUID, expectedVersion int, interval models.StayInterval, rooms models.UUIDArray) (*models.PackageBooking, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.PackageBooking, error)
	CheckIn(ctx context.Context, id uuid.UUID, docs models.CheckInDocuments) (*models.PackageBooking, error)
}

// EventPublisher publishes booking lifecycle events
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// BookingAuditor records who changed a booking and from where
type BookingAuditor interface {
	LogBookingEvent(ctx context.Context, event BookingAuditEvent) error
}

// DocumentStore keeps uploaded check-in documents
type DocumentStore interface {
	Put(ctx context.Context, obj storage.Object) (*storage.StoredObject, error)
	Delete(ctx context.Context, ref string) error
	List(ctx context.Context) ([]storage.ObjectInfo, error)
}
