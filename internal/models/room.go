package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RoomType is the category a room is sold under (Standard, Deluxe, Suite...)
type RoomType string

// NormalizeRoomType trims a room type name so that stored and requested
// values compare equal regardless of surrounding whitespace or case.
func NormalizeRoomType(s string) RoomType {
	return RoomType(strings.ToLower(strings.TrimSpace(s)))
}

// Room represents a physical room of the property.
// Availability is never read from this record; see the booking ledger.
type Room struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Number      string    `db:"number" json:"number"`
	Type        RoomType  `db:"room_type" json:"type"`
	NightlyRate float64   `db:"nightly_rate" json:"nightly_rate"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RoomIDs returns the ids of the given rooms in order
func RoomIDs(rooms []Room) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	return ids
}
