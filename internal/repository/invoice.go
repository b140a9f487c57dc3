package repository

import (
	"context"

	"taxi24/internal/domain"
)

// InvoiceRepository defines the persistence operations for invoices.
type InvoiceRepository interface {
	// CreateIfAbsent persists invoice unless one already exists for its trip.
	// It returns the stored invoice and whether this call created it.
	CreateIfAbsent(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, bool, error)

	// GetByID retrieves an invoice by ID.
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)

	// GetByTripID retrieves the invoice for a trip.
	// Returns nil if the trip has no invoice.
	GetByTripID(ctx context.Context, tripID string) (*domain.Invoice, error)

	// GetByPassengerID retrieves a passenger's invoices, most recent first.
	GetByPassengerID(ctx context.Context, passengerID string) ([]*domain.Invoice, error)

	// GetByDriverID retrieves a driver's invoices, most recent first.
	GetByDriverID(ctx context.Context, driverID string) ([]*domain.Invoice, error)

	// GetAll retrieves all invoices, most recent first.
	GetAll(ctx context.Context) ([]*domain.Invoice, error)
}
