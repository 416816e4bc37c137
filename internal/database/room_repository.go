package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayline/hotel-admin-backend/internal/models"
)

// RoomRepository reads the property's room inventory
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new RoomRepository
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `id, number, room_type, nightly_rate, created_at, updated_at`

// ListRooms returns every room ordered by room number
func (r *RoomRepository) ListRooms(ctx context.Context) ([]models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms ORDER BY number`

	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// GetRoomsByIDs returns the rooms matching ids. Unknown ids are simply
// absent from the result.
func (r *RoomRepository) GetRoomsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Room, error) {
	if len(ids) == 0 {
		return []models.Room{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+roomColumns+` FROM rooms WHERE id IN (?) ORDER BY number`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build rooms query: %w", err)
	}
	query = r.db.Rebind(query)

	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}
	return rooms, nil
}
