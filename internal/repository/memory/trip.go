package memory

import (
	"context"
	"sync"

	"taxi24/internal/domain"
	"taxi24/internal/repository"
)

// TripRepository is an in-memory implementation of repository.TripRepository.
type TripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip
	order []string
}

// NewTripRepository creates an empty in-memory trip repository.
func NewTripRepository() *TripRepository {
	return &TripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// Create persists a new trip. Like the Postgres partial indexes, it rejects a
// second active trip for the same passenger or driver.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trips[trip.ID]; ok {
		return repository.ErrDuplicate
	}
	if trip.Status.IsActive() {
		for _, t := range r.trips {
			if !t.Status.IsActive() {
				continue
			}
			if t.PassengerID == trip.PassengerID {
				return repository.ErrPassengerTripActive
			}
			if trip.DriverID != "" && t.DriverID == trip.DriverID {
				return repository.ErrDriverTripActive
			}
		}
	}
	r.trips[trip.ID] = copyTrip(trip)
	r.order = append(r.order, trip.ID)
	return nil
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyTrip(t), nil
}

// GetAll retrieves all trips, most recent first.
func (r *TripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	return r.filter(func(*domain.Trip) bool { return true }), nil
}

// GetActive retrieves trips that are PENDING or IN_PROGRESS.
func (r *TripRepository) GetActive(ctx context.Context) ([]*domain.Trip, error) {
	return r.filter(func(t *domain.Trip) bool { return t.Status.IsActive() }), nil
}

// UpdateIfStatus writes trip only if the stored status still equals expected.
func (r *TripRepository) UpdateIfStatus(ctx context.Context, trip *domain.Trip, expected domain.TripStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.trips[trip.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Status != expected {
		return repository.ErrStaleStatus
	}
	r.trips[trip.ID] = copyTrip(trip)
	return nil
}

// GetActiveByPassengerID retrieves the active trip for a passenger.
// Returns nil if no active trip exists.
func (r *TripRepository) GetActiveByPassengerID(ctx context.Context, passengerID string) (*domain.Trip, error) {
	return r.firstActive(func(t *domain.Trip) bool { return t.PassengerID == passengerID }), nil
}

// GetActiveByDriverID retrieves the active trip for a driver.
// Returns nil if no active trip exists.
func (r *TripRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	if driverID == "" {
		return nil, nil
	}
	return r.firstActive(func(t *domain.Trip) bool { return t.DriverID == driverID }), nil
}

func (r *TripRepository) firstActive(match func(*domain.Trip) bool) *domain.Trip {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if t := r.trips[id]; t.Status.IsActive() && match(t) {
			return copyTrip(t)
		}
	}
	return nil
}

func (r *TripRepository) filter(keep func(*domain.Trip) bool) []*domain.Trip {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.Trip, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		if t := r.trips[r.order[i]]; keep(t) {
			result = append(result, copyTrip(t))
		}
	}
	return result
}

func copyTrip(t *domain.Trip) *domain.Trip {
	c := *t
	if t.EndedAt != nil {
		e := *t.EndedAt
		c.EndedAt = &e
	}
	if t.Fare != nil {
		f := *t.Fare
		c.Fare = &f
	}
	return &c
}

var _ repository.TripRepository = (*TripRepository)(nil)
