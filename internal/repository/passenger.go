package repository

import (
	"context"

	"taxi24/internal/domain"
)

// PassengerRepository defines the persistence operations for passengers.
type PassengerRepository interface {
	// Save inserts or replaces a passenger.
	Save(ctx context.Context, passenger *domain.Passenger) error

	// GetByID retrieves a passenger by ID.
	GetByID(ctx context.Context, id string) (*domain.Passenger, error)

	// GetAll retrieves all passengers in insertion order.
	GetAll(ctx context.Context) ([]*domain.Passenger, error)
}
