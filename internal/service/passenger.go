package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"taxi24/internal/domain"
	"taxi24/internal/repository"
)

// PassengerService handles passenger records.
type PassengerService struct {
	passengerRepo repository.PassengerRepository
	now           func() time.Time
}

// NewPassengerService creates a new PassengerService.
func NewPassengerService(passengerRepo repository.PassengerRepository) *PassengerService {
	return &PassengerService{
		passengerRepo: passengerRepo,
		now:           time.Now,
	}
}

// List returns every passenger in insertion order.
func (s *PassengerService) List(ctx context.Context) ([]*domain.Passenger, error) {
	return s.passengerRepo.GetAll(ctx)
}

// Get returns the passenger with id. A missing passenger is reported as false.
func (s *PassengerService) Get(ctx context.Context, id string) (*domain.Passenger, bool, error) {
	if id == "" {
		return nil, false, ErrInvalidPassengerID
	}
	p, err := s.passengerRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// Save registers or replaces a passenger. A blank ID is assigned a new one.
func (s *PassengerService) Save(ctx context.Context, passenger *domain.Passenger) (*domain.Passenger, error) {
	passenger.Name = strings.TrimSpace(passenger.Name)
	passenger.Phone = strings.TrimSpace(passenger.Phone)
	if err := requireFields(map[string]string{
		"name":  passenger.Name,
		"phone": passenger.Phone,
	}); err != nil {
		return nil, err
	}

	if passenger.ID == "" {
		passenger.ID = uuid.New().String()
	}
	if passenger.CreatedAt.IsZero() {
		passenger.CreatedAt = s.now()
	}

	if err := s.passengerRepo.Save(ctx, passenger); err != nil {
		return nil, err
	}
	return passenger, nil
}
