package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ValidationError represents malformed input or a disallowed room selection
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrInvalidInput creates a new validation error
func ErrInvalidInput(message string) error {
	return &ValidationError{Message: message}
}

// ErrInvalidField creates a validation error bound to a request field
func ErrInvalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NoAvailabilityError is returned when no rooms satisfy a request
type NoAvailabilityError struct {
	Message string
}

func (e *NoAvailabilityError) Error() string {
	return e.Message
}

// ConflictError is returned when a booking lost a concurrent allocation race at commit time
type ConflictError struct {
	BookingID uuid.UUID
	Message   string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// InvalidStateError is returned when an operation is not allowed from the booking's current status
type InvalidStateError struct {
	BookingID uuid.UUID
	Current   BookingStatus
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s booking %s in status %s", e.Operation, e.BookingID, e.Current)
}

// NotFoundError is returned for unknown booking, room or package ids
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InfrastructureError wraps storage failures that survived the transaction retry
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: storage unavailable: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNoAvailability(err error) bool {
	var target *NoAvailabilityError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsInfrastructure(err error) bool {
	var target *InfrastructureError
	return errors.As(err, &target)
}

// IsDomainError reports whether err belongs to the booking error taxonomy
// rather than to the storage layer.
func IsDomainError(err error) bool {
	return IsValidation(err) || IsNoAvailability(err) || IsConflict(err) ||
		IsInvalidState(err) || IsNotFound(err)
}
