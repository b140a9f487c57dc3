package memory

import (
	"context"
	"sync"

	"taxi24/internal/domain"
	"taxi24/internal/repository"
)

// InvoiceRepository is an in-memory implementation of repository.InvoiceRepository.
type InvoiceRepository struct {
	mu       sync.RWMutex
	invoices map[string]*domain.Invoice
	byTrip   map[string]string
	order    []string
}

// NewInvoiceRepository creates an empty in-memory invoice repository.
func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{
		invoices: make(map[string]*domain.Invoice),
		byTrip:   make(map[string]string),
	}
}

// CreateIfAbsent persists invoice unless one already exists for its trip.
func (r *InvoiceRepository) CreateIfAbsent(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byTrip[invoice.TripID]; ok {
		return copyInvoice(r.invoices[id]), false, nil
	}
	if _, ok := r.invoices[invoice.ID]; ok {
		return nil, false, repository.ErrDuplicate
	}
	r.invoices[invoice.ID] = copyInvoice(invoice)
	r.byTrip[invoice.TripID] = invoice.ID
	r.order = append(r.order, invoice.ID)
	return copyInvoice(invoice), true, nil
}

// GetByID retrieves an invoice by ID.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyInvoice(inv), nil
}

// GetByTripID retrieves the invoice for a trip.
// Returns nil if the trip has no invoice.
func (r *InvoiceRepository) GetByTripID(ctx context.Context, tripID string) (*domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byTrip[tripID]
	if !ok {
		return nil, nil
	}
	return copyInvoice(r.invoices[id]), nil
}

func (r *InvoiceRepository) GetByPassengerID(ctx context.Context, passengerID string) ([]*domain.Invoice, error) {
	return r.filter(func(inv *domain.Invoice) bool { return inv.PassengerID == passengerID }), nil
}

func (r *InvoiceRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Invoice, error) {
	return r.filter(func(inv *domain.Invoice) bool { return inv.DriverID == driverID }), nil
}

func (r *InvoiceRepository) GetAll(ctx context.Context) ([]*domain.Invoice, error) {
	return r.filter(func(*domain.Invoice) bool { return true }), nil
}

func (r *InvoiceRepository) filter(keep func(*domain.Invoice) bool) []*domain.Invoice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.Invoice, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		if inv := r.invoices[r.order[i]]; keep(inv) {
			result = append(result, copyInvoice(inv))
		}
	}
	return result
}

func copyInvoice(inv *domain.Invoice) *domain.Invoice {
	c := *inv
	c.LineItems = append([]string(nil), inv.LineItems...)
	return &c
}

var _ repository.InvoiceRepository = (*InvoiceRepository)(nil)
