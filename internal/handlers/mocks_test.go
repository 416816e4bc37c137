package handlers

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayline/hotel-admin-backend/internal/middleware"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/internal/services"
	"github.com/stayline/hotel-admin-backend/pkg/storage"
	"github.com/stretchr/testify/mock"
)

// MockAvailability is a mock implementation of AvailabilityQuerier
type MockAvailability struct {
	mock.Mock
}

func (m *MockAvailability) QueryAvailableRooms(ctx context.Context, packageID uuid.UUID, interval models.StayInterval) ([]models.Room, error) {
	args := m.Called(ctx, packageID, interval)
	rooms, _ := args.Get(0).([]models.Room)
	return rooms, args.Error(1)
}

func (m *MockAvailability) ListRooms(ctx context.Context) ([]models.Room, error) {
	args := m.Called(ctx)
	rooms, _ := args.Get(0).([]models.Room)
	return rooms, args.Error(1)
}

func (m *MockAvailability) ListPackages(ctx context.Context) ([]models.PackageOffering, error) {
	args := m.Called(ctx)
	packages, _ := args.Get(0).([]models.PackageOffering)
	return packages, args.Error(1)
}

func (m *MockAvailability) GetPackage(ctx context.Context, id uuid.UUID) (*models.PackageOffering, error) {
	args := m.Called(ctx, id)
	pkg, _ := args.Get(0).(*models.PackageOffering)
	return pkg, args.Error(1)
}

// MockAllocator is a mock implementation of BookingAllocator
type MockAllocator struct {
	mock.Mock
}

func (m *MockAllocator) CreateBooking(ctx context.Context, draft *models.BookingDraft, actor models.Actor) (*models.PackageBooking, error) {
	args := m.Called(ctx, draft, actor)
	booking, _ := args.Get(0).(*models.PackageBooking)
	return booking, args.Error(1)
}

func (m *MockAllocator) UpdateBooking(ctx context.Context, id uuid.UUID, change *models.BookingChange, actor models.Actor) (*models.PackageBooking, error) {
	args := m.Called(ctx, id, change, actor)
	booking, _ := args.Get(0).(*models.PackageBooking)
	return booking, args.Error(1)
}

// MockLifecycle is a mock implementation of BookingLifecycle
type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) GetBooking(ctx context.Context, id uuid.UUID) (*models.PackageBooking, error) {
	args := m.Called(ctx, id)
	booking, _ := args.Get(0).(*models.PackageBooking)
	return booking, args.Error(1)
}

func (m *MockLifecycle) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.PackageBooking, error) {
	args := m.Called(ctx, filter)
	bookings, _ := args.Get(0).([]models.PackageBooking)
	return bookings, args.Error(1)
}

func (m *MockLifecycle) CancelBooking(ctx context.Context, id uuid.UUID, reason string, actor models.Actor) (*models.PackageBooking, error) {
	args := m.Called(ctx, id, reason, actor)
	booking, _ := args.Get(0).(*models.PackageBooking)
	return booking, args.Error(1)
}

// MockHistory is a mock implementation of BookingHistory
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) GetBookingHistory(ctx context.Context, bookingID uuid.UUID) ([]services.AuditEntry, error) {
	args := m.Called(ctx, bookingID)
	entries, _ := args.Get(0).([]services.AuditEntry)
	return entries, args.Error(1)
}

// MockCheckIn is a mock implementation of GuestCheckIn
type MockCheckIn struct {
	mock.Mock
}

func (m *MockCheckIn) CheckInWithUploads(ctx context.Context, id uuid.UUID, identity, photo *storage.Object, actor models.Actor) (*models.PackageBooking, error) {
	args := m.Called(ctx, id, identity, photo, actor)
	booking, _ := args.Get(0).(*models.PackageBooking)
	return booking, args.Error(1)
}

func setupTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// setupTestRouter returns a router that authenticates every request as staffID
func setupTestRouter(staffID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserContextKey, middleware.UserContext{
			UserID: staffID,
			Email:  "desk@example.com",
			Roles:  []string{"front_desk"},
		})
		c.Next()
	})
	return router
}
