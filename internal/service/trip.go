package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taxi24/internal/domain"
	"taxi24/internal/observability"
	"taxi24/internal/repository"
)

// TripService drives the trip state machine and persists each transition.
type TripService struct {
	tripRepo            repository.TripRepository
	invoiceService      *InvoiceService
	farePolicy          FarePolicy
	notificationService *NotificationService
	logger              *zap.Logger
	now                 func() time.Time
}

// NewTripService creates a new TripService.
func NewTripService(
	tripRepo repository.TripRepository,
	invoiceService *InvoiceService,
	farePolicy FarePolicy,
	notificationService *NotificationService,
	logger *zap.Logger,
) *TripService {
	if farePolicy == nil {
		farePolicy = FlatFare{Amount: DefaultFlatFare}
	}
	return &TripService{
		tripRepo:            tripRepo,
		invoiceService:      invoiceService,
		farePolicy:          farePolicy,
		notificationService: notificationService,
		logger:              logger,
		now:                 time.Now,
	}
}

// CreateTripRequest contains the parameters for creating a trip.
type CreateTripRequest struct {
	PassengerID string
	Origin      domain.Location
	Destination domain.Location
	DriverID    string // Optional
}

// Create persists a new PENDING trip. Callers enforce the one-active-trip rule.
func (s *TripService) Create(ctx context.Context, req CreateTripRequest) (*domain.Trip, error) {
	if req.PassengerID == "" {
		return nil, ErrInvalidPassengerID
	}

	trip := domain.NewTrip(uuid.New().String(), req.PassengerID, req.Origin, req.Destination, req.DriverID, s.now())
	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	observability.TripTransitionsTotal.WithLabelValues(string(domain.TripStatusPending)).Inc()
	s.logger.Info("trip requested",
		zap.String("trip_id", trip.ID),
		zap.String("passenger_id", trip.PassengerID),
		zap.String("driver_id", trip.DriverID),
	)
	if s.notificationService != nil {
		s.notificationService.NotifyTripRequested(ctx, trip)
	}
	return trip, nil
}

// Start moves a PENDING trip to IN_PROGRESS.
func (s *TripService) Start(ctx context.Context, tripID string) (*domain.Trip, error) {
	trip, err := s.transition(ctx, tripID, func(t *domain.Trip) error { return t.Start() })
	if err != nil {
		return nil, err
	}
	if s.notificationService != nil {
		s.notificationService.NotifyTripStarted(ctx, trip)
	}
	return trip, nil
}

// Cancel moves a PENDING trip to CANCELLED.
func (s *TripService) Cancel(ctx context.Context, tripID string) (*domain.Trip, error) {
	trip, err := s.transition(ctx, tripID, func(t *domain.Trip) error { return t.Cancel() })
	if err != nil {
		return nil, err
	}
	if s.notificationService != nil {
		s.notificationService.NotifyTripCancelled(ctx, trip)
	}
	return trip, nil
}

// CompleteTripResponse contains the result of completing a trip.
type CompleteTripResponse struct {
	Trip    *domain.Trip
	Invoice *domain.Invoice
}

// Complete moves an IN_PROGRESS trip to COMPLETED and issues its invoice.
// fareOverride, when positive, replaces the fare policy.
// Only one of several concurrent calls succeeds; the rest get domain.ErrInvalidTransition.
func (s *TripService) Complete(ctx context.Context, tripID string, fareOverride *float64) (*CompleteTripResponse, error) {
	var fareErr error
	trip, err := s.transition(ctx, tripID, func(t *domain.Trip) error {
		fare, err := resolveFare(s.farePolicy, t, fareOverride)
		if err != nil {
			fareErr = err
			return err
		}
		return t.Complete(s.now(), fare)
	})
	if err != nil {
		if fareErr != nil {
			return nil, fareErr
		}
		return nil, err
	}

	if s.notificationService != nil {
		s.notificationService.NotifyTripCompleted(ctx, trip)
	}

	// The trip is committed; a failed invoice is recovered lazily by InvoiceService.ByTrip.
	invoice, err := s.invoiceService.Issue(ctx, trip)
	if err != nil {
		s.logger.Error("trip completed but invoice was not issued", zap.String("trip_id", trip.ID), zap.Error(err))
		return nil, fmt.Errorf("issue invoice for trip %s: %w", trip.ID, err)
	}

	return &CompleteTripResponse{Trip: trip, Invoice: invoice}, nil
}

// transition loads a trip, applies apply, and writes it back only if no other
// writer changed its status in between.
func (s *TripService) transition(ctx context.Context, tripID string, apply func(*domain.Trip) error) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	from := trip.Status
	if err := apply(trip); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			observability.TripTransitionConflicts.WithLabelValues(string(from)).Inc()
		}
		return nil, err
	}

	if err := s.tripRepo.UpdateIfStatus(ctx, trip, from); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleStatus):
			observability.TripTransitionConflicts.WithLabelValues(string(trip.Status)).Inc()
			return nil, fmt.Errorf("%w: trip %s changed concurrently", domain.ErrInvalidTransition, tripID)
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	observability.TripTransitionsTotal.WithLabelValues(string(trip.Status)).Inc()
	s.logger.Info("trip transitioned",
		zap.String("trip_id", trip.ID),
		zap.String("from", string(from)),
		zap.String("to", string(trip.Status)),
	)
	return trip, nil
}

// Get returns a trip by ID. A missing trip is reported as false.
func (s *TripService) Get(ctx context.Context, tripID string) (*domain.Trip, bool, error) {
	if tripID == "" {
		return nil, false, ErrInvalidTripID
	}
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return trip, true, nil
}

// List returns all trips, most recent first.
func (s *TripService) List(ctx context.Context) ([]*domain.Trip, error) {
	return s.tripRepo.GetAll(ctx)
}

// ListActive returns PENDING and IN_PROGRESS trips.
func (s *TripService) ListActive(ctx context.Context) ([]*domain.Trip, error) {
	return s.tripRepo.GetActive(ctx)
}

// ActiveByPassenger returns the passenger's non-terminal trip, if any.
func (s *TripService) ActiveByPassenger(ctx context.Context, passengerID string) (*domain.Trip, bool, error) {
	if passengerID == "" {
		return nil, false, ErrInvalidPassengerID
	}
	trip, err := s.tripRepo.GetActiveByPassengerID(ctx, passengerID)
	if err != nil {
		return nil, false, err
	}
	return trip, trip != nil, nil
}

// ActiveByDriver returns the driver's non-terminal trip, if any.
func (s *TripService) ActiveByDriver(ctx context.Context, driverID string) (*domain.Trip, bool, error) {
	if driverID == "" {
		return nil, false, ErrInvalidDriverID
	}
	trip, err := s.tripRepo.GetActiveByDriverID(ctx, driverID)
	if err != nil {
		return nil, false, err
	}
	return trip, trip != nil, nil
}
