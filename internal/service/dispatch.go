package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"taxi24/internal/domain"
	"taxi24/internal/redis"
	"taxi24/internal/repository"
)

const (
	// DefaultDispatchRadiusKm is the search radius around a passenger.
	DefaultDispatchRadiusKm = 3.0

	requestLockTTL = 10 * time.Second
)

// DispatchConfig tunes passenger-facing proximity queries.
type DispatchConfig struct {
	RadiusKm   float64
	MaxResults int
}

// DispatchService orchestrates trip requests across passengers, drivers and trips.
type DispatchService struct {
	passengerRepo   repository.PassengerRepository
	driverDirectory *DriverDirectory
	tripService     *TripService
	lockStore       redis.LockStoreInterface
	cfg             DispatchConfig
	logger          *zap.Logger
}

// NewDispatchService creates a new DispatchService.
func NewDispatchService(
	passengerRepo repository.PassengerRepository,
	driverDirectory *DriverDirectory,
	tripService *TripService,
	lockStore redis.LockStoreInterface,
	cfg DispatchConfig,
	logger *zap.Logger,
) *DispatchService {
	if cfg.RadiusKm <= 0 {
		cfg.RadiusKm = DefaultDispatchRadiusKm
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultNearbyLimit
	}
	if lockStore == nil {
		lockStore = NewLocalLockStore()
	}
	return &DispatchService{
		passengerRepo:   passengerRepo,
		driverDirectory: driverDirectory,
		tripService:     tripService,
		lockStore:       lockStore,
		cfg:             cfg,
		logger:          logger,
	}
}

// RequestTripRequest contains the parameters for requesting a trip.
type RequestTripRequest struct {
	PassengerID string
	Origin      domain.Location
	Destination domain.Location
	DriverID    string // Optional
}

// RequestTrip creates a PENDING trip for an existing passenger.
// A passenger or driver with a non-terminal trip cannot get another one.
func (s *DispatchService) RequestTrip(ctx context.Context, req RequestTripRequest) (*domain.Trip, error) {
	if req.PassengerID == "" {
		return nil, ErrInvalidPassengerID
	}

	if _, err := s.passengerRepo.GetByID(ctx, req.PassengerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPassengerNotFound
		}
		return nil, err
	}

	if req.DriverID != "" {
		_, found, err := s.driverDirectory.Get(ctx, req.DriverID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrDriverNotFound
		}
	}

	// Serialize requests per passenger and per driver so the active-trip checks below hold.
	release, err := s.lock(ctx, "passenger:"+req.PassengerID)
	if err != nil {
		return nil, err
	}
	defer release()

	if req.DriverID != "" {
		releaseDriver, err := s.lock(ctx, "driver:"+req.DriverID)
		if err != nil {
			return nil, err
		}
		defer releaseDriver()
	}

	if _, active, err := s.tripService.ActiveByPassenger(ctx, req.PassengerID); err != nil {
		return nil, err
	} else if active {
		return nil, ErrPassengerHasActiveTrip
	}

	if req.DriverID != "" {
		if _, active, err := s.tripService.ActiveByDriver(ctx, req.DriverID); err != nil {
			return nil, err
		} else if active {
			return nil, ErrDriverHasActiveTrip
		}
	}

	trip, err := s.tripService.Create(ctx, CreateTripRequest{
		PassengerID: req.PassengerID,
		Origin:      req.Origin,
		Destination: req.Destination,
		DriverID:    req.DriverID,
	})
	// The store's active-trip constraints catch writers outside these locks.
	switch {
	case errors.Is(err, repository.ErrDriverTripActive):
		return nil, ErrDriverHasActiveTrip
	case errors.Is(err, repository.ErrDuplicate):
		return nil, ErrPassengerHasActiveTrip
	}
	return trip, err
}

// StartTrip moves a PENDING trip to IN_PROGRESS.
func (s *DispatchService) StartTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	return s.tripService.Start(ctx, tripID)
}

// CancelTrip moves a PENDING trip to CANCELLED.
func (s *DispatchService) CancelTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	return s.tripService.Cancel(ctx, tripID)
}

// CompleteTrip completes a trip and returns it with its invoice.
func (s *DispatchService) CompleteTrip(ctx context.Context, tripID string, fareOverride *float64) (*CompleteTripResponse, error) {
	return s.tripService.Complete(ctx, tripID, fareOverride)
}

// NearbyDriversForPassenger returns available drivers within the dispatch radius
// of the passenger's location, nearest first, capped at the configured result
// limit and then at maxResults when it is positive. No match is an empty result.
func (s *DispatchService) NearbyDriversForPassenger(ctx context.Context, passengerID string, maxResults int) ([]domain.NearbyDriver, error) {
	if passengerID == "" {
		return nil, ErrInvalidPassengerID
	}
	passenger, err := s.passengerRepo.GetByID(ctx, passengerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPassengerNotFound
		}
		return nil, err
	}

	// maxResults only narrows the configured cap, it never widens it.
	nearby, err := s.driverDirectory.FindNearby(ctx, passenger.Location, s.cfg.RadiusKm, s.cfg.MaxResults)
	if err != nil {
		return nil, err
	}
	if maxResults > 0 && maxResults < len(nearby) {
		nearby = nearby[:maxResults]
	}
	return nearby, nil
}

func (s *DispatchService) lock(ctx context.Context, key string) (func(), error) {
	token, ok, err := s.lockStore.Acquire(ctx, key, requestLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRequestInProgress
	}
	return func() {
		if err := s.lockStore.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
