package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"taxi24/internal/domain"
	"taxi24/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

// Save inserts or replaces a driver.
func (r *DriverRepository) Save(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (id, name, email, phone, lat, lng, available, license,
			vehicle_plate, vehicle_model, vehicle_color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			available = EXCLUDED.available,
			license = EXCLUDED.license,
			vehicle_plate = EXCLUDED.vehicle_plate,
			vehicle_model = EXCLUDED.vehicle_model,
			vehicle_color = EXCLUDED.vehicle_color,
			updated_at = EXCLUDED.updated_at
	`

	var plate, model, color sql.NullString
	if driver.Vehicle != nil {
		plate = sql.NullString{String: driver.Vehicle.Plate, Valid: true}
		model = nullString(driver.Vehicle.Model)
		color = nullString(driver.Vehicle.Color)
	}

	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.Name,
		driver.Email,
		driver.Phone,
		driver.Location.Lat(),
		driver.Location.Lng(),
		driver.Available,
		nullString(driver.License),
		plate,
		model,
		color,
		driver.CreatedAt,
		driver.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves a driver by email.
func (r *DriverRepository) GetByEmail(ctx context.Context, email string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE lower(email) = lower($1)`
	return r.getOne(ctx, query, email)
}

// GetAll retrieves all drivers in insertion order.
func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers ORDER BY created_at, id`
	return r.list(ctx, query)
}

// GetAvailable retrieves available drivers in insertion order.
func (r *DriverRepository) GetAvailable(ctx context.Context) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE available ORDER BY created_at, id`
	return r.list(ctx, query)
}

// GetByIDs retrieves the drivers with the given IDs in insertion order.
func (r *DriverRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Driver, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = ANY($1) ORDER BY created_at, id`
	return r.list(ctx, query, pq.Array(ids))
}

// UpdateLocation replaces the stored location of a driver.
func (r *DriverRepository) UpdateLocation(ctx context.Context, id string, loc domain.Location) error {
	query := `UPDATE drivers SET lat = $1, lng = $2, updated_at = now() WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, loc.Lat(), loc.Lng(), id)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrNotFound)
}

// UpdateAvailability sets whether a driver accepts trips.
func (r *DriverRepository) UpdateAvailability(ctx context.Context, id string, available bool) error {
	query := `UPDATE drivers SET available = $1, updated_at = now() WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, available, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrNotFound)
}

func (r *DriverRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Driver, error) {
	driver, err := scanDriver(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return driver, nil
}

func (r *DriverRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Driver, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

// Ensure DriverRepository implements repository.DriverRepository.
var _ repository.DriverRepository = (*DriverRepository)(nil)
