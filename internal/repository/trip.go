package repository

import (
	"context"

	"taxi24/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetAll retrieves all trips, most recent first.
	GetAll(ctx context.Context) ([]*domain.Trip, error)

	// GetActive retrieves trips that are PENDING or IN_PROGRESS.
	GetActive(ctx context.Context) ([]*domain.Trip, error)

	// UpdateIfStatus writes trip only if the stored status still equals expected.
	// Returns ErrStaleStatus when another writer got there first.
	UpdateIfStatus(ctx context.Context, trip *domain.Trip, expected domain.TripStatus) error

	// GetActiveByPassengerID retrieves the active trip for a passenger.
	// Returns nil if no active trip exists.
	GetActiveByPassengerID(ctx context.Context, passengerID string) (*domain.Trip, error)

	// GetActiveByDriverID retrieves the active trip for a driver.
	// Returns nil if no active trip exists.
	GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error)
}
