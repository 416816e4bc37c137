package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BookingPolicyKind is the storage tag of a booking policy
type BookingPolicyKind string

const (
	PolicyWholeProperty BookingPolicyKind = "whole_property"
	PolicyRoomType      BookingPolicyKind = "room_type"
)

// BookingPolicy decides which rooms a package may book.
// It is a closed set: WholePropertyPolicy or RoomTypePolicy.
type BookingPolicy interface {
	Kind() BookingPolicyKind
	Admits(t RoomType) bool
	isBookingPolicy()
}

// WholePropertyPolicy books every free room of the property
type WholePropertyPolicy struct{}

func (WholePropertyPolicy) Kind() BookingPolicyKind { return PolicyWholeProperty }
func (WholePropertyPolicy) Admits(RoomType) bool    { return true }
func (WholePropertyPolicy) isBookingPolicy()        {}

func (p WholePropertyPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind BookingPolicyKind `json:"kind"`
	}{Kind: p.Kind()})
}

// RoomTypePolicy restricts a package to rooms of the allowed types
type RoomTypePolicy struct {
	allowed map[RoomType]string
}

// NewRoomTypePolicy builds a policy from display names such as "Standard", "Deluxe"
func NewRoomTypePolicy(types ...string) (RoomTypePolicy, error) {
	allowed := make(map[RoomType]string, len(types))
	for _, t := range types {
		key := NormalizeRoomType(t)
		if key == "" {
			continue
		}
		allowed[key] = strings.TrimSpace(t)
	}
	if len(allowed) == 0 {
		return RoomTypePolicy{}, ErrInvalidField("room_types", "room type policy requires at least one room type")
	}
	return RoomTypePolicy{allowed: allowed}, nil
}

func (RoomTypePolicy) Kind() BookingPolicyKind { return PolicyRoomType }
func (RoomTypePolicy) isBookingPolicy()        {}

func (p RoomTypePolicy) Admits(t RoomType) bool {
	_, ok := p.allowed[NormalizeRoomType(string(t))]
	return ok
}

// AllowedTypes returns the allowed room type names sorted alphabetically
func (p RoomTypePolicy) AllowedTypes() []string {
	names := make([]string, 0, len(p.allowed))
	for _, name := range p.allowed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p RoomTypePolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind      BookingPolicyKind `json:"kind"`
		RoomTypes []string          `json:"room_types"`
	}{Kind: p.Kind(), RoomTypes: p.AllowedTypes()})
}

// ParseBookingPolicy converts the stored policy tag and comma-separated
// room type list into a BookingPolicy.
func ParseBookingPolicy(tag, roomTypes string) (BookingPolicy, error) {
	switch BookingPolicyKind(strings.ToLower(strings.TrimSpace(tag))) {
	case PolicyWholeProperty, "whole", "entire_property":
		return WholePropertyPolicy{}, nil
	case PolicyRoomType, "room_types", "by_room_type":
		return NewRoomTypePolicy(strings.Split(roomTypes, ",")...)
	default:
		return nil, ErrInvalidField("booking_policy", "unknown booking policy "+tag)
	}
}

// PackageOffering represents a sellable package with its booking policy
type PackageOffering struct {
	ID        uuid.UUID     `json:"id"`
	Title     string        `json:"title"`
	Price     float64       `json:"price"`
	Policy    BookingPolicy `json:"policy"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
