package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"taxi24/internal/domain"
	"taxi24/internal/repository"
)

// InvoiceRepository is a PostgreSQL implementation of repository.InvoiceRepository.
type InvoiceRepository struct {
	q Querier
}

// NewInvoiceRepository creates a new PostgreSQL invoice repository.
func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{q: db}
}

// NewInvoiceRepositoryWithTx creates an invoice repository using a transaction.
func NewInvoiceRepositoryWithTx(tx *sql.Tx) *InvoiceRepository {
	return &InvoiceRepository{q: tx}
}

const invoiceColumns = `id, trip_id, passenger_id, COALESCE(driver_id, ''), fare, issued_at, trip_date,
	origin_lat, origin_lng, destination_lat, destination_lng, line_items, tax, subtotal, total`

// CreateIfAbsent persists invoice unless one already exists for its trip.
// The unique index on trip_id decides the winner under concurrent completion.
func (r *InvoiceRepository) CreateIfAbsent(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, bool, error) {
	query := `
		INSERT INTO invoices (id, trip_id, passenger_id, driver_id, fare, issued_at, trip_date,
			origin_lat, origin_lng, destination_lat, destination_lng, line_items, tax, subtotal, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (trip_id) DO NOTHING
	`

	result, err := r.q.ExecContext(ctx, query,
		invoice.ID,
		invoice.TripID,
		invoice.PassengerID,
		nullString(invoice.DriverID),
		invoice.Fare,
		invoice.IssuedAt,
		invoice.TripDate,
		invoice.Origin.Lat(),
		invoice.Origin.Lng(),
		invoice.Destination.Lat(),
		invoice.Destination.Lng(),
		pq.Array(invoice.LineItems),
		invoice.Tax,
		invoice.Subtotal,
		invoice.Total,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, false, repository.ErrDuplicate
		}
		return nil, false, err
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if inserted == 1 {
		return invoice, true, nil
	}

	existing, err := r.GetByTripID(ctx, invoice.TripID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, repository.ErrNotFound
	}
	return existing, false, nil
}

// GetByID retrieves an invoice by ID.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	invoice, err := scanInvoice(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return invoice, nil
}

// GetByTripID retrieves the invoice for a trip.
// Returns nil if the trip has no invoice.
func (r *InvoiceRepository) GetByTripID(ctx context.Context, tripID string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE trip_id = $1`

	invoice, err := scanInvoice(r.q.QueryRowContext(ctx, query, tripID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return invoice, nil
}

// GetByPassengerID retrieves a passenger's invoices, most recent first.
func (r *InvoiceRepository) GetByPassengerID(ctx context.Context, passengerID string) ([]*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE passenger_id = $1 ORDER BY issued_at DESC, id`
	return r.list(ctx, query, passengerID)
}

// GetByDriverID retrieves a driver's invoices, most recent first.
func (r *InvoiceRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE driver_id = $1 ORDER BY issued_at DESC, id`
	return r.list(ctx, query, driverID)
}

// GetAll retrieves all invoices, most recent first.
func (r *InvoiceRepository) GetAll(ctx context.Context) ([]*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY issued_at DESC, id`
	return r.list(ctx, query)
}

func (r *InvoiceRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Invoice, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

func scanInvoice(s scanner) (*domain.Invoice, error) {
	var (
		inv                  domain.Invoice
		originLat, originLng float64
		destLat, destLng     float64
		lineItems            pq.StringArray
	)
	if err := s.Scan(
		&inv.ID, &inv.TripID, &inv.PassengerID, &inv.DriverID,
		&inv.Fare, &inv.IssuedAt, &inv.TripDate,
		&originLat, &originLng, &destLat, &destLng,
		&lineItems, &inv.Tax, &inv.Subtotal, &inv.Total,
	); err != nil {
		return nil, err
	}

	var err error
	if inv.Origin, err = toLocation("invoice origin", inv.ID, originLat, originLng); err != nil {
		return nil, err
	}
	if inv.Destination, err = toLocation("invoice destination", inv.ID, destLat, destLng); err != nil {
		return nil, err
	}
	inv.LineItems = []string(lineItems)
	return &inv, nil
}

// Ensure InvoiceRepository implements repository.InvoiceRepository.
var _ repository.InvoiceRepository = (*InvoiceRepository)(nil)
