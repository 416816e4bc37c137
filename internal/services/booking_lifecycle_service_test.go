package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCancelBooking(t *testing.T) {
	f := newBookingFixture()
	room := f.inventory.addRoom("101", "Standard")
	pkg := roomTypePackage(t, f, "Standard")
	ctx := context.Background()

	booking, err := f.allocation.CreateBooking(ctx, draftFor(t, pkg, "2026-03-10", "2026-03-12", room), models.Actor{})
	require.NoError(t, err)

	cancelled, err := f.lifecycle.CancelBooking(ctx, booking.ID, "guest request", models.Actor{})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	f.publisher.AssertCalled(t, "PublishJSON", mock.Anything, events.BookingCancelled, mock.Anything)

	t.Run("cancelling twice fails", func(t *testing.T) {
		_, err := f.lifecycle.CancelBooking(ctx, booking.ID, "", models.Actor{})
		var serr *models.InvalidStateError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, models.BookingStatusCancelled, serr.Current)
	})

	t.Run("released rooms can be rebooked", func(t *testing.T) {
		_, err := f.allocation.CreateBooking(ctx, draftFor(t, pkg, "2026-03-10", "2026-03-12", room), models.Actor{})
		assert.NoError(t, err)
	})
}

func TestCancelBooking_CheckedInAndUnknown(t *testing.T) {
	f := newBookingFixture()
	interval := stay(t, "2026-03-10", "2026-03-12")
	b := f.ledger.put(models.PackageBooking{
		CheckIn: interval.CheckIn, CheckOut: interval.CheckOut,
		AssignedRooms: models.UUIDArray{uuid.New()}, Status: models.BookingStatusCheckedIn,
	})

	_, err := f.lifecycle.CancelBooking(context.Background(), b.ID, "", models.Actor{})
	assert.True(t, models.IsInvalidState(err))

	_, err = f.lifecycle.CancelBooking(context.Background(), uuid.New(), "", models.Actor{})
	assert.True(t, models.IsNotFound(err))

	f.publisher.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything, mock.Anything)
}

func TestListBookings(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	march := stay(t, "2026-03-10", "2026-03-12")
	april := stay(t, "2026-04-10", "2026-04-12")
	f.ledger.put(models.PackageBooking{CheckIn: march.CheckIn, CheckOut: march.CheckOut, Status: models.BookingStatusBooked})
	f.ledger.put(models.PackageBooking{CheckIn: april.CheckIn, CheckOut: april.CheckOut, Status: models.BookingStatusCancelled})

	window := stay(t, "2026-03-01", "2026-03-31")
	list, err := f.lifecycle.ListBookings(ctx, models.BookingFilter{Window: &window})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	cancelled := models.BookingStatusCancelled
	list, err = f.lifecycle.ListBookings(ctx, models.BookingFilter{Status: &cancelled})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.BookingStatusCancelled, list[0].Status)

	bad := models.StayInterval{CheckIn: window.CheckOut, CheckOut: window.CheckIn}
	_, err = f.lifecycle.ListBookings(ctx, models.BookingFilter{Window: &bad})
	assert.True(t, models.IsValidation(err))
}
