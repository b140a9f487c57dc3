package memory

import (
	"context"
	"sync"

	"taxi24/internal/domain"
	"taxi24/internal/repository"
)

// PassengerRepository is an in-memory implementation of repository.PassengerRepository.
type PassengerRepository struct {
	mu         sync.RWMutex
	passengers map[string]domain.Passenger
	order      []string
}

// NewPassengerRepository creates an empty in-memory passenger repository.
func NewPassengerRepository() *PassengerRepository {
	return &PassengerRepository{
		passengers: make(map[string]domain.Passenger),
	}
}

func (r *PassengerRepository) Save(ctx context.Context, passenger *domain.Passenger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.passengers[passenger.ID]; !ok {
		r.order = append(r.order, passenger.ID)
	}
	r.passengers[passenger.ID] = *passenger
	return nil
}

func (r *PassengerRepository) GetByID(ctx context.Context, id string) (*domain.Passenger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.passengers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *PassengerRepository) GetAll(ctx context.Context) ([]*domain.Passenger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.Passenger, 0, len(r.order))
	for _, id := range r.order {
		p := r.passengers[id]
		result = append(result, &p)
	}
	return result, nil
}

var _ repository.PassengerRepository = (*PassengerRepository)(nil)
