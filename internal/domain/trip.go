package domain

import (
	"fmt"
	"time"
)

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusPending    TripStatus = "PENDING"
	TripStatusInProgress TripStatus = "IN_PROGRESS"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusCancelled  TripStatus = "CANCELLED"
)

// ActiveTripStatuses are the non-terminal statuses.
var ActiveTripStatuses = []TripStatus{TripStatusPending, TripStatusInProgress}

// IsTerminal reports whether no further transitions are possible from s.
func (s TripStatus) IsTerminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled
}

// IsActive reports whether s is PENDING or IN_PROGRESS.
func (s TripStatus) IsActive() bool {
	return s == TripStatusPending || s == TripStatusInProgress
}

// Valid reports whether s is a known status.
func (s TripStatus) Valid() bool {
	switch s {
	case TripStatusPending, TripStatusInProgress, TripStatusCompleted, TripStatusCancelled:
		return true
	}
	return false
}

// Trip represents a passenger's journey from request to completion or cancellation.
// EndedAt and Fare are set only once the trip is COMPLETED.
type Trip struct {
	ID          string
	PassengerID string
	DriverID    string // Empty until assigned
	Origin      Location
	Destination Location
	Status      TripStatus
	StartedAt   time.Time
	EndedAt     *time.Time
	Fare        *float64
}

// NewTrip creates a trip in PENDING state.
func NewTrip(id, passengerID string, origin, destination Location, driverID string, now time.Time) *Trip {
	return &Trip{
		ID:          id,
		PassengerID: passengerID,
		DriverID:    driverID,
		Origin:      origin,
		Destination: destination,
		Status:      TripStatusPending,
		StartedAt:   now,
	}
}

// Start moves a PENDING trip to IN_PROGRESS.
func (t *Trip) Start() error {
	if err := t.transition(TripStatusPending, TripStatusInProgress); err != nil {
		return err
	}
	t.Status = TripStatusInProgress
	return nil
}

// Cancel moves a PENDING trip to CANCELLED.
func (t *Trip) Cancel() error {
	if err := t.transition(TripStatusPending, TripStatusCancelled); err != nil {
		return err
	}
	t.Status = TripStatusCancelled
	return nil
}

// Complete moves an IN_PROGRESS trip to COMPLETED, recording the end time and fare.
func (t *Trip) Complete(now time.Time, fare float64) error {
	if err := t.transition(TripStatusInProgress, TripStatusCompleted); err != nil {
		return err
	}
	t.Status = TripStatusCompleted
	t.EndedAt = &now
	t.Fare = &fare
	return nil
}

// Duration returns the elapsed time between start and end, or zero if the trip has not ended.
func (t *Trip) Duration() time.Duration {
	if t.EndedAt == nil {
		return 0
	}
	return t.EndedAt.Sub(t.StartedAt)
}

func (t *Trip) transition(from, to TripStatus) error {
	if t.Status != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, to)
	}
	return nil
}
