package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayline/hotel-admin-backend/internal/models"
)

// BookingLedger is the authoritative store of package bookings and their
// room assignments. Every mutation re-validates room occupancy inside its
// own transaction.
type BookingLedger struct {
	db *sqlx.DB
}

// NewBookingLedger creates a new BookingLedger
func NewBookingLedger(db *sqlx.DB) *BookingLedger {
	return &BookingLedger{db: db}
}

const bookingColumns = `id, guest_name, guest_contact, check_in, check_out, adults, children,
	package_id, assigned_rooms, status, identity_document_ref, guest_photo_ref, version,
	checked_in_at, cancelled_at, created_at, updated_at`

const activeStatusClause = `status IN ('booked', 'checked_in')`

// ============================================================================
// READS
// ============================================================================

// GetByID returns a booking or a NotFoundError
func (l *BookingLedger) GetByID(ctx context.Context, id uuid.UUID) (*models.PackageBooking, error) {
	var booking *models.PackageBooking
	err := retryOnce(ctx, "get booking", func() error {
		var err error
		booking, err = getBooking(ctx, l.db, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// List returns bookings matching the filter ordered by check-in date
func (l *BookingLedger) List(ctx context.Context, filter models.BookingFilter) ([]models.PackageBooking, error) {
	var conditions []string
	var args []interface{}

	if filter.Window != nil {
		args = append(args, filter.Window.CheckOut, filter.Window.CheckIn)
		conditions = append(conditions, fmt.Sprintf("check_in < $%d AND check_out > $%d", len(args)-1, len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM package_bookings`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY check_in, created_at`

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var bookings []models.PackageBooking
	err := retryOnce(ctx, "list bookings", func() error {
		bookings = nil
		return l.db.SelectContext(ctx, &bookings, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// BusyRoomIDs returns the rooms held by active bookings overlapping interval.
// The booking identified by exclude is ignored, so an edit never conflicts
// with its own reservation; pass uuid.Nil to exclude nothing.
func (l *BookingLedger) BusyRoomIDs(ctx context.Context, interval models.StayInterval, exclude uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT room_id
		FROM package_bookings b, unnest(b.assigned_rooms) AS room_id
		WHERE b.` + activeStatusClause + `
		  AND b.check_in < $2 AND b.check_out > $1
		  AND b.id <> $3
	`

	var busy []uuid.UUID
	err := retryOnce(ctx, "query busy rooms", func() error {
		busy = nil
		return l.db.SelectContext(ctx, &busy, query, interval.CheckIn, interval.CheckOut, exclude)
	})
	if err != nil {
		return nil, err
	}
	return busy, nil
}

// ReferencedDocumentRefs returns every document reference stored on a booking
func (l *BookingLedger) ReferencedDocumentRefs(ctx context.Context) (map[string]struct{}, error) {
	query := `
		SELECT identity_document_ref FROM package_bookings WHERE identity_document_ref IS NOT NULL
		UNION
		SELECT guest_photo_ref FROM package_bookings WHERE guest_photo_ref IS NOT NULL
	`

	var refs []string
	err := retryOnce(ctx, "list document refs", func() error {
		refs = nil
		return l.db.SelectContext(ctx, &refs, query)
	})
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		set[ref] = struct{}{}
	}
	return set, nil
}

// ============================================================================
// WRITES
// ============================================================================

// Create commits a new booking in status booked. The assigned rooms are
// locked and re-checked for overlaps before the insert; a booking that
// overlaps one committed in the meantime fails with ConflictError.
func (l *BookingLedger) Create(ctx context.Context, booking *models.PackageBooking) (*models.PackageBooking, error) {
	var saved *models.PackageBooking
	err := WithTx(ctx, l.db, "create booking", func(tx *sqlx.Tx) error {
		// A retry after a lost commit acknowledgement finds its own row
		existing, err := getBooking(ctx, tx, booking.ID)
		if err == nil {
			saved = existing
			return nil
		}
		if !models.IsNotFound(err) {
			return err
		}

		if err := lockRooms(ctx, tx, booking.AssignedRooms); err != nil {
			return err
		}
		if err := ensureNoOverlap(ctx, tx, booking.AssignedRooms, booking.Interval(), booking.ID); err != nil {
			return err
		}

		query := `
			INSERT INTO package_bookings (
				id, guest_name, guest_contact, check_in, check_out, adults, children,
				package_id, assigned_rooms, status, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, NOW(), NOW())
			RETURNING ` + bookingColumns

		var row models.PackageBooking
		err = tx.GetContext(ctx, &row, query,
			booking.ID,
			booking.GuestName,
			booking.GuestContact,
			booking.CheckIn,
			booking.CheckOut,
			booking.Adults,
			booking.Children,
			booking.PackageID,
			booking.AssignedRooms,
			models.BookingStatusBooked,
		)
		if err != nil {
			return fmt.Errorf("failed to insert booking: %w", err)
		}
		saved = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// UpdateAllocation replaces the interval and rooms of a booked booking.
// expectedVersion must match the version the caller validated against.
func (l *BookingLedger) UpdateAllocation(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion int,
	interval models.StayInterval,
	rooms models.UUIDArray,
) (*models.PackageBooking, error) {
	applied := func(b *models.PackageBooking) bool {
		return b.Status == models.BookingStatusBooked &&
			b.Version == expectedVersion+1 &&
			sameDay(b.CheckIn, interval.CheckIn) &&
			sameDay(b.CheckOut, interval.CheckOut) &&
			sameRooms(b.AssignedRooms, rooms)
	}

	var saved *models.PackageBooking
	attempt := 0
	err := WithTx(ctx, l.db, "update booking", func(tx *sqlx.Tx) error {
		attempt++
		if err := lockRooms(ctx, tx, rooms); err != nil {
			return err
		}
		if err := ensureNoOverlap(ctx, tx, rooms, interval, id); err != nil {
			return err
		}

		query := `
			UPDATE package_bookings
			SET check_in = $2, check_out = $3, assigned_rooms = $4,
			    version = version + 1, updated_at = NOW()
			WHERE id = $1 AND status = 'booked' AND version = $5
			RETURNING ` + bookingColumns

		var row models.PackageBooking
		err := tx.GetContext(ctx, &row, query, id, interval.CheckIn, interval.CheckOut, rooms, expectedVersion)
		if errors.Is(err, sql.ErrNoRows) {
			current, err := resolveRejectedUpdate(ctx, tx, id, "edit", attempt > 1, applied)
			saved = current
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		saved = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Cancel moves a booked booking to cancelled. Cancelled bookings no longer
// take part in conflict checks. A retry whose first commit went through
// returns the cancelled row.
func (l *BookingLedger) Cancel(ctx context.Context, id uuid.UUID) (*models.PackageBooking, error) {
	query := `
		UPDATE package_bookings
		SET status = 'cancelled', cancelled_at = NOW(), version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'booked'
		RETURNING ` + bookingColumns

	applied := func(b *models.PackageBooking) bool {
		return b.Status == models.BookingStatusCancelled
	}
	return l.guardedTransition(ctx, "cancel booking", "cancel", query, id, applied)
}

// CheckIn stores both document references and flips the status to
// checked_in in a single statement. A retry whose first commit went through
// is recognised by the stored references and returns the checked-in row.
func (l *BookingLedger) CheckIn(ctx context.Context, id uuid.UUID, docs models.CheckInDocuments) (*models.PackageBooking, error) {
	query := `
		UPDATE package_bookings
		SET status = 'checked_in', identity_document_ref = $2, guest_photo_ref = $3,
		    checked_in_at = NOW(), version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'booked'
		RETURNING ` + bookingColumns

	applied := func(b *models.PackageBooking) bool {
		return b.Status == models.BookingStatusCheckedIn &&
			b.IdentityDocumentRef != nil && *b.IdentityDocumentRef == docs.IdentityDocumentRef &&
			b.GuestPhotoRef != nil && *b.GuestPhotoRef == docs.GuestPhotoRef
	}
	return l.guardedTransition(ctx, "check in booking", "check in", query, id, applied, docs.IdentityDocumentRef, docs.GuestPhotoRef)
}

func (l *BookingLedger) guardedTransition(
	ctx context.Context,
	op, verb, query string,
	id uuid.UUID,
	applied func(*models.PackageBooking) bool,
	extra ...interface{},
) (*models.PackageBooking, error) {
	args := append([]interface{}{id}, extra...)

	var saved *models.PackageBooking
	attempt := 0
	err := WithTx(ctx, l.db, op, func(tx *sqlx.Tx) error {
		attempt++
		var row models.PackageBooking
		err := tx.GetContext(ctx, &row, query, args...)
		if errors.Is(err, sql.ErrNoRows) {
			current, err := resolveRejectedUpdate(ctx, tx, id, verb, attempt > 1, applied)
			saved = current
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to %s booking: %w", verb, err)
		}
		saved = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func getBooking(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.PackageBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM package_bookings WHERE id = $1`

	var booking models.PackageBooking
	err := sqlx.GetContext(ctx, q, &booking, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "booking", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// lockRooms takes row locks on the given rooms in id order. Concurrent
// allocations sharing any room serialize here.
func lockRooms(ctx context.Context, tx *sqlx.Tx, rooms models.UUIDArray) error {
	if len(rooms) == 0 {
		return models.ErrInvalidField("room_ids", "at least one room must be assigned")
	}

	var locked []uuid.UUID
	err := tx.SelectContext(ctx, &locked,
		`SELECT id FROM rooms WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`, rooms)
	if err != nil {
		return fmt.Errorf("failed to lock rooms: %w", err)
	}

	if len(locked) != len(rooms) {
		found := make(map[uuid.UUID]struct{}, len(locked))
		for _, id := range locked {
			found[id] = struct{}{}
		}
		for _, id := range rooms {
			if _, ok := found[id]; !ok {
				return &models.NotFoundError{Entity: "room", ID: id.String()}
			}
		}
	}
	return nil
}

func ensureNoOverlap(ctx context.Context, tx *sqlx.Tx, rooms models.UUIDArray, interval models.StayInterval, self uuid.UUID) error {
	query := `
		SELECT id FROM package_bookings
		WHERE ` + activeStatusClause + `
		  AND assigned_rooms && $1::uuid[]
		  AND check_in < $3 AND check_out > $2
		  AND id <> $4
		LIMIT 1
	`

	var conflicting uuid.UUID
	err := tx.GetContext(ctx, &conflicting, query, rooms, interval.CheckIn, interval.CheckOut, self)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	return &models.ConflictError{
		BookingID: conflicting,
		Message:   "one or more rooms were booked by another reservation for these dates; query availability again",
	}
}

// resolveRejectedUpdate handles a guarded UPDATE that matched no row. On a
// retry the row may already carry this request's own write, in which case
// it is returned as the result. Otherwise the matching domain error is.
func resolveRejectedUpdate(
	ctx context.Context,
	tx *sqlx.Tx,
	id uuid.UUID,
	verb string,
	retry bool,
	applied func(*models.PackageBooking) bool,
) (*models.PackageBooking, error) {
	current, err := getBooking(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if retry && applied(current) {
		return current, nil
	}
	if current.Status != models.BookingStatusBooked {
		return nil, &models.InvalidStateError{BookingID: id, Current: current.Status, Operation: verb}
	}
	return nil, &models.ConflictError{
		BookingID: id,
		Message:   "booking was modified by another request; reload and try again",
	}
}

func sameDay(a, b time.Time) bool {
	return a.Format(models.DateLayout) == b.Format(models.DateLayout)
}

func sameRooms(a, b models.UUIDArray) bool {
	if len(a) != len(b) {
		return false
	}
	for _, id := range b {
		if !a.Contains(id) {
			return false
		}
	}
	return true
}
