package services

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayline/hotel-admin-backend/internal/database"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuditTestDB(t *testing.T) (*database.PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &database.PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}, mock
}

// deviceDetails matches the details JSON written for a booking event
type deviceDetails struct{}

func (deviceDetails) Match(v driver.Value) bool {
	raw, ok := v.([]byte)
	if !ok {
		return false
	}
	var details map[string]interface{}
	if err := json.Unmarshal(raw, &details); err != nil {
		return false
	}
	device, ok := details["device"].(map[string]interface{})
	return ok && device["browser"] == "Chrome" && details["reason"] == "guest request"
}

func TestAuditService_LogBookingEvent(t *testing.T) {
	db, mock := newAuditTestDB(t)
	svc := NewAuditService(db, true)
	bookingID := uuid.New()
	actor := models.Actor{
		UserID:    uuid.New(),
		IPAddress: "10.0.0.5",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}

	mock.ExpectExec(`INSERT INTO booking_audit_logs`).
		WithArgs(bookingID, sqlmock.AnyArg(), "BOOKING_CANCELLED", actor.IPAddress, actor.UserAgent, deviceDetails{}).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := svc.LogBookingEvent(context.Background(), BookingAuditEvent{
		BookingID: bookingID,
		Action:    "BOOKING_CANCELLED",
		Actor:     actor,
		Details:   map[string]interface{}{"reason": "guest request"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_Disabled(t *testing.T) {
	db, mock := newAuditTestDB(t)
	svc := NewAuditService(db, false)

	err := svc.LogBookingEvent(context.Background(), BookingAuditEvent{BookingID: uuid.New(), Action: "BOOKING_CREATED"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_History(t *testing.T) {
	db, mock := newAuditTestDB(t)
	svc := NewAuditService(db, true)
	bookingID := uuid.New()

	mock.ExpectQuery(`FROM booking_audit_logs\s+WHERE booking_id = \$1`).
		WithArgs(bookingID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "actor_id", "action", "ip_address", "user_agent", "details", "created_at"}).
			AddRow(2, bookingID.String(), nil, "BOOKING_CANCELLED", nil, nil, []byte(`{}`), time.Now()).
			AddRow(1, bookingID.String(), uuid.NewString(), "BOOKING_CREATED", "10.0.0.5", "curl/8.0", []byte(`{"room_count":2}`), time.Now()))

	entries, err := svc.GetBookingHistory(context.Background(), bookingID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].ActorID.Valid)
	assert.True(t, entries[1].ActorID.Valid)
	assert.JSONEq(t, `{"room_count":2}`, string(entries[1].Details))
}

func TestAuditService_Cleanup(t *testing.T) {
	db, mock := newAuditTestDB(t)
	svc := NewAuditService(db, true)

	mock.ExpectExec(`DELETE FROM booking_audit_logs WHERE created_at < \$1`).
		WillReturnResult(sqlmock.NewResult(0, 7))

	deleted, err := svc.CleanupOldAuditLogs(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
}
