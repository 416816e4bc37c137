package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stayline/hotel-admin-backend/internal/database"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/internal/utils"
)

// AuditService writes the booking audit trail
type AuditService struct {
	db      database.DB
	enabled bool
}

// NewAuditService creates a new AuditService
func NewAuditService(db database.DB, enabled bool) *AuditService {
	return &AuditService{db: db, enabled: enabled}
}

// BookingAuditEvent represents one mutation of a booking
type BookingAuditEvent struct {
	BookingID uuid.UUID
	Action    string
	Actor     models.Actor
	Details   map[string]interface{}
}

// AuditEntry is a stored audit row
type AuditEntry struct {
	ID        int64           `db:"id" json:"id"`
	BookingID uuid.UUID       `db:"booking_id" json:"booking_id"`
	ActorID   uuid.NullUUID   `db:"actor_id" json:"actor_id"`
	Action    string          `db:"action" json:"action"`
	IPAddress *string         `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent *string         `db:"user_agent" json:"user_agent,omitempty"`
	Details   json.RawMessage `db:"details" json:"details,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// LogBookingEvent stores an audit row including the parsed terminal device
func (s *AuditService) LogBookingEvent(ctx context.Context, event BookingAuditEvent) error {
	if !s.enabled {
		return nil
	}

	details := make(map[string]interface{}, len(event.Details)+1)
	for k, v := range event.Details {
		details[k] = v
	}
	details["device"] = utils.ParseUserAgent(event.Actor.UserAgent)

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	query := `
		INSERT INTO booking_audit_logs (booking_id, actor_id, action, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	_, err = s.db.ExecContext(ctx, query,
		event.BookingID,
		uuid.NullUUID{UUID: event.Actor.UserID, Valid: event.Actor.UserID != uuid.Nil},
		event.Action,
		event.Actor.IPAddress,
		event.Actor.UserAgent,
		detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// GetBookingHistory returns the audit trail of a booking, newest first
func (s *AuditService) GetBookingHistory(ctx context.Context, bookingID uuid.UUID) ([]AuditEntry, error) {
	query := `
		SELECT id, booking_id, actor_id, action, ip_address, user_agent, details, created_at
		FROM booking_audit_logs
		WHERE booking_id = $1
		ORDER BY created_at DESC, id DESC
	`

	entries := []AuditEntry{}
	if err := s.db.SelectContext(ctx, &entries, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to get booking history: %w", err)
	}
	return entries, nil
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	result, err := s.db.ExecContext(ctx, `DELETE FROM booking_audit_logs WHERE created_at < $1`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
