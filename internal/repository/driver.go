package repository

import (
	"context"

	"taxi24/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Save inserts or replaces a driver. Returns ErrDuplicate if the email belongs to another driver.
	Save(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByEmail retrieves a driver by email.
	GetByEmail(ctx context.Context, email string) (*domain.Driver, error)

	// GetAll retrieves all drivers in insertion order.
	GetAll(ctx context.Context) ([]*domain.Driver, error)

	// GetAvailable retrieves available drivers in insertion order.
	GetAvailable(ctx context.Context) ([]*domain.Driver, error)

	// GetByIDs retrieves the drivers with the given IDs. Unknown IDs are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Driver, error)

	// UpdateLocation replaces the stored location of a driver.
	UpdateLocation(ctx context.Context, id string, loc domain.Location) error

	// UpdateAvailability sets whether a driver accepts trips.
	UpdateAvailability(ctx context.Context, id string, available bool) error
}
