// Package memory provides in-process repository implementations for local runs and tests.
package memory

import (
	"context"
	"strings"
	"sync"

	"taxi24/internal/domain"
	"taxi24/internal/repository"
)

// DriverRepository is an in-memory implementation of repository.DriverRepository.
type DriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver
	order   []string
}

// NewDriverRepository creates an empty in-memory driver repository.
func NewDriverRepository() *DriverRepository {
	return &DriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// Save inserts or replaces a driver.
func (r *DriverRepository) Save(ctx context.Context, driver *domain.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, d := range r.drivers {
		if id != driver.ID && strings.EqualFold(d.Email, driver.Email) {
			return repository.ErrDuplicate
		}
	}

	if _, ok := r.drivers[driver.ID]; !ok {
		r.order = append(r.order, driver.ID)
	}
	r.drivers[driver.ID] = copyDriver(driver)
	return nil
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyDriver(d), nil
}

// GetByEmail retrieves a driver by email.
func (r *DriverRepository) GetByEmail(ctx context.Context, email string) (*domain.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if d := r.drivers[id]; strings.EqualFold(d.Email, email) {
			return copyDriver(d), nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetAll retrieves all drivers in insertion order.
func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	return r.filter(func(*domain.Driver) bool { return true }), nil
}

// GetAvailable retrieves available drivers in insertion order.
func (r *DriverRepository) GetAvailable(ctx context.Context) ([]*domain.Driver, error) {
	return r.filter(func(d *domain.Driver) bool { return d.Available }), nil
}

// GetByIDs retrieves the drivers with the given IDs in insertion order.
func (r *DriverRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Driver, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return r.filter(func(d *domain.Driver) bool {
		_, ok := want[d.ID]
		return ok
	}), nil
}

// UpdateLocation replaces the stored location of a driver.
func (r *DriverRepository) UpdateLocation(ctx context.Context, id string, loc domain.Location) error {
	return r.update(id, func(d *domain.Driver) { d.Location = loc })
}

// UpdateAvailability sets whether a driver accepts trips.
func (r *DriverRepository) UpdateAvailability(ctx context.Context, id string, available bool) error {
	return r.update(id, func(d *domain.Driver) { d.Available = available })
}

func (r *DriverRepository) update(id string, fn func(*domain.Driver)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	updated := copyDriver(d)
	fn(updated)
	r.drivers[id] = updated
	return nil
}

func (r *DriverRepository) filter(keep func(*domain.Driver) bool) []*domain.Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(r.order))
	for _, id := range r.order {
		if d := r.drivers[id]; keep(d) {
			result = append(result, copyDriver(d))
		}
	}
	return result
}

func copyDriver(d *domain.Driver) *domain.Driver {
	c := *d
	if d.Vehicle != nil {
		v := *d.Vehicle
		c.Vehicle = &v
	}
	return &c
}

var _ repository.DriverRepository = (*DriverRepository)(nil)
