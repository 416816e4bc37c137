package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stayline/hotel-admin-backend/pkg/validator"
)

// DateLayout is the wire format of stay dates
const DateLayout = "2006-01-02"

var contactValidator = validator.NewContactValidator("")

// SetGuestPhoneCountryCode sets the country code applied to local guest phone numbers.
// Call once during startup.
func SetGuestPhoneCountryCode(code string) {
	contactValidator = validator.NewContactValidator(code)
}

// BookingStatus represents the lifecycle status of a package booking
type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusCheckedIn BookingStatus = "checked_in"
	BookingStatusCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusBooked: {BookingStatusCheckedIn, BookingStatusCancelled},
}

// CanTransitionTo reports whether the lifecycle allows moving to next
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive reports whether bookings in this status occupy their rooms
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusBooked || s == BookingStatusCheckedIn
}

// ActiveBookingStatuses lists the statuses that take part in conflict checks
var ActiveBookingStatuses = []BookingStatus{BookingStatusBooked, BookingStatusCheckedIn}

// ParseBookingStatus validates a status filter value
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch st := BookingStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case BookingStatusBooked, BookingStatusCheckedIn, BookingStatusCancelled:
		return st, nil
	default:
		return "", ErrInvalidField("status", "unknown booking status "+s)
	}
}

// StayInterval is a half-open range of nights [CheckIn, CheckOut)
type StayInterval struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// NewStayInterval truncates both ends to calendar dates and validates ordering
func NewStayInterval(checkIn, checkOut time.Time) (StayInterval, error) {
	i := StayInterval{CheckIn: dateOf(checkIn), CheckOut: dateOf(checkOut)}
	if err := i.Validate(); err != nil {
		return StayInterval{}, err
	}
	return i, nil
}

// ParseStayInterval parses YYYY-MM-DD dates
func ParseStayInterval(checkIn, checkOut string) (StayInterval, error) {
	in, err := time.Parse(DateLayout, strings.TrimSpace(checkIn))
	if err != nil {
		return StayInterval{}, ErrInvalidField("check_in", "must be a date in YYYY-MM-DD format")
	}
	out, err := time.Parse(DateLayout, strings.TrimSpace(checkOut))
	if err != nil {
		return StayInterval{}, ErrInvalidField("check_out", "must be a date in YYYY-MM-DD format")
	}
	return NewStayInterval(in, out)
}

// Validate checks that the stay covers at least one night
func (i StayInterval) Validate() error {
	if i.CheckIn.IsZero() || i.CheckOut.IsZero() {
		return ErrInvalidInput("check_in and check_out are required")
	}
	if !i.CheckIn.Before(i.CheckOut) {
		return ErrInvalidField("check_out", "must be after check_in")
	}
	return nil
}

// Overlaps uses half-open semantics: a checkout on day X does not
// conflict with a check-in on day X.
func (i StayInterval) Overlaps(o StayInterval) bool {
	return i.CheckIn.Before(o.CheckOut) && i.CheckOut.After(o.CheckIn)
}

// Nights returns the number of nights in the stay
func (i StayInterval) Nights() int {
	return int(i.CheckOut.Sub(i.CheckIn).Hours() / 24)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PackageBooking represents a guest booking made under a package offering
type PackageBooking struct {
	ID                  uuid.UUID     `db:"id" json:"id"`
	GuestName           string        `db:"guest_name" json:"guest_name"`
	GuestContact        string        `db:"guest_contact" json:"guest_contact"`
	CheckIn             time.Time     `db:"check_in" json:"check_in"`
	CheckOut            time.Time     `db:"check_out" json:"check_out"`
	Adults              int           `db:"adults" json:"adults"`
	Children            int           `db:"children" json:"children"`
	PackageID           uuid.UUID     `db:"package_id" json:"package_id"`
	AssignedRooms       UUIDArray     `db:"assigned_rooms" json:"assigned_rooms"`
	Status              BookingStatus `db:"status" json:"status"`
	IdentityDocumentRef *string       `db:"identity_document_ref" json:"identity_document_ref,omitempty"`
	GuestPhotoRef       *string       `db:"guest_photo_ref" json:"guest_photo_ref,omitempty"`
	Version             int           `db:"version" json:"version"`
	CheckedInAt         *time.Time    `db:"checked_in_at" json:"checked_in_at,omitempty"`
	CancelledAt         *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

// Interval returns the stay interval of the booking
func (b *PackageBooking) Interval() StayInterval {
	return StayInterval{CheckIn: dateOf(b.CheckIn), CheckOut: dateOf(b.CheckOut)}
}

// CanBeEdited checks if dates or rooms may still change
func (b *PackageBooking) CanBeEdited() bool {
	return b.Status == BookingStatusBooked
}

// CanBeCancelled checks if the booking can be cancelled
func (b *PackageBooking) CanBeCancelled() bool {
	return b.Status.CanTransitionTo(BookingStatusCancelled)
}

// CanCheckIn checks if the guest can be checked in
func (b *PackageBooking) CanCheckIn() bool {
	return b.Status.CanTransitionTo(BookingStatusCheckedIn)
}

// ============================================================================
// REQUEST / COMMAND TYPES
// ============================================================================

// GuestInfo holds the guest details captured at booking time
type GuestInfo struct {
	Name     string
	Contact  string
	Adults   int
	Children int
}

// BookingDraft is a validated request to create a booking
type BookingDraft struct {
	Guest     GuestInfo
	Interval  StayInterval
	PackageID uuid.UUID
	RoomIDs   []uuid.UUID
}

// CreatePackageBookingRequest is the request body of POST /bookings
type CreatePackageBookingRequest struct {
	GuestName    string   `json:"guest_name"`
	GuestContact string   `json:"guest_contact"`
	CheckIn      string   `json:"check_in"`
	CheckOut     string   `json:"check_out"`
	Adults       int      `json:"adults"`
	Children     int      `json:"children"`
	PackageID    string   `json:"package_id"`
	RoomIDs      []string `json:"room_ids,omitempty"`
}

// ToDraft validates the request and converts it to a BookingDraft
func (r *CreatePackageBookingRequest) ToDraft() (*BookingDraft, error) {
	guest := GuestInfo{
		Name:     strings.TrimSpace(r.GuestName),
		Contact:  strings.TrimSpace(r.GuestContact),
		Adults:   r.Adults,
		Children: r.Children,
	}
	if guest.Name == "" {
		return nil, ErrInvalidField("guest_name", "is required")
	}
	if guest.Contact == "" {
		return nil, ErrInvalidField("guest_contact", "is required")
	}
	contact, _, err := contactValidator.Validate(guest.Contact)
	if err != nil {
		return nil, ErrInvalidField("guest_contact", err.Error())
	}
	guest.Contact = contact
	if guest.Adults < 1 {
		return nil, ErrInvalidField("adults", "at least one adult is required")
	}
	if guest.Children < 0 {
		return nil, ErrInvalidField("children", "cannot be negative")
	}

	interval, err := ParseStayInterval(r.CheckIn, r.CheckOut)
	if err != nil {
		return nil, err
	}

	packageID, err := uuid.Parse(r.PackageID)
	if err != nil {
		return nil, ErrInvalidField("package_id", "must be a valid UUID")
	}

	roomIDs, err := parseRoomIDs(r.RoomIDs)
	if err != nil {
		return nil, err
	}

	return &BookingDraft{
		Guest:     guest,
		Interval:  interval,
		PackageID: packageID,
		RoomIDs:   roomIDs,
	}, nil
}

// BookingChange describes an edit of an existing booking.
// Nil fields keep their current value.
type BookingChange struct {
	Interval *StayInterval
	RoomIDs  []uuid.UUID
	// ExpectedVersion is the booking version the change was derived from. Zero skips the check.
	ExpectedVersion int
}

// UpdatePackageBookingRequest is the request body of PUT /bookings/:id
type UpdatePackageBookingRequest struct {
	CheckIn  *string  `json:"check_in,omitempty"`
	CheckOut *string  `json:"check_out,omitempty"`
	RoomIDs  []string `json:"room_ids,omitempty"`
	Version  *int     `json:"version,omitempty"`
}

// ToChange validates the request against the booking's current interval
func (r *UpdatePackageBookingRequest) ToChange(current StayInterval) (*BookingChange, error) {
	if r.CheckIn == nil && r.CheckOut == nil && r.RoomIDs == nil {
		return nil, ErrInvalidInput("nothing to update: provide check_in, check_out or room_ids")
	}

	change := &BookingChange{}
	if r.Version != nil {
		if *r.Version < 1 {
			return nil, ErrInvalidField("version", "must be positive")
		}
		change.ExpectedVersion = *r.Version
	}
	if r.CheckIn != nil || r.CheckOut != nil {
		in := current.CheckIn.Format(DateLayout)
		out := current.CheckOut.Format(DateLayout)
		if r.CheckIn != nil {
			in = *r.CheckIn
		}
		if r.CheckOut != nil {
			out = *r.CheckOut
		}
		interval, err := ParseStayInterval(in, out)
		if err != nil {
			return nil, err
		}
		change.Interval = &interval
	}

	if r.RoomIDs != nil {
		roomIDs, err := parseRoomIDs(r.RoomIDs)
		if err != nil {
			return nil, err
		}
		if len(roomIDs) == 0 {
			return nil, ErrInvalidField("room_ids", "cannot be empty")
		}
		change.RoomIDs = roomIDs
	}

	return change, nil
}

func parseRoomIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	seen := make(map[uuid.UUID]struct{}, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, ErrInvalidField("room_ids", "contains an invalid room id: "+s)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// CheckInDocuments holds the opaque references captured at check-in
type CheckInDocuments struct {
	IdentityDocumentRef string
	GuestPhotoRef       string
}

// Validate requires both artifacts
func (d CheckInDocuments) Validate() error {
	if strings.TrimSpace(d.IdentityDocumentRef) == "" {
		return ErrInvalidField("identity_document", "identity document is required for check-in")
	}
	if strings.TrimSpace(d.GuestPhotoRef) == "" {
		return ErrInvalidField("guest_photo", "guest photo is required for check-in")
	}
	return nil
}

// BookingFilter narrows ledger listings
type BookingFilter struct {
	Window *StayInterval
	Status *BookingStatus
	Limit  int
	Offset int
}

// Actor identifies the staff member performing a mutation
type Actor struct {
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
}
