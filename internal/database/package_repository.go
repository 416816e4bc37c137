package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayline/hotel-admin-backend/internal/models"
)

// PackageRepository reads package offerings and converts their stored
// policy columns into a models.BookingPolicy
type PackageRepository struct {
	db *sqlx.DB
}

// NewPackageRepository creates a new PackageRepository
func NewPackageRepository(db *sqlx.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

type packageRow struct {
	ID            uuid.UUID      `db:"id"`
	Title         string         `db:"title"`
	Price         float64        `db:"price"`
	BookingPolicy string         `db:"booking_policy"`
	RoomTypes     sql.NullString `db:"room_types"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (row packageRow) toModel() (*models.PackageOffering, error) {
	policy, err := models.ParseBookingPolicy(row.BookingPolicy, row.RoomTypes.String)
	if err != nil {
		return nil, fmt.Errorf("package %s has an invalid booking policy: %w", row.ID, err)
	}
	return &models.PackageOffering{
		ID:        row.ID,
		Title:     row.Title,
		Price:     row.Price,
		Policy:    policy,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

const packageColumns = `id, title, price, booking_policy, room_types, created_at, updated_at`

// GetPackageByID returns a package or a NotFoundError
func (r *PackageRepository) GetPackageByID(ctx context.Context, id uuid.UUID) (*models.PackageOffering, error) {
	query := `SELECT ` + packageColumns + ` FROM package_offerings WHERE id = $1`

	var row packageRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Entity: "package", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return row.toModel()
}

// ListPackages returns all packages ordered by title
func (r *PackageRepository) ListPackages(ctx context.Context) ([]models.PackageOffering, error) {
	query := `SELECT ` + packageColumns + ` FROM package_offerings ORDER BY title`

	var rows []packageRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	packages := make([]models.PackageOffering, 0, len(rows))
	for _, row := range rows {
		pkg, err := row.toModel()
		if err != nil {
			return nil, err
		}
		packages = append(packages, *pkg)
	}
	return packages, nil
}
