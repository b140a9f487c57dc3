package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate entity")

	// ErrPassengerTripActive and ErrDriverTripActive name which active-trip
	// constraint rejected a trip insert. Both match ErrDuplicate.
	ErrPassengerTripActive = fmt.Errorf("%w: passenger already has an active trip", ErrDuplicate)
	ErrDriverTripActive    = fmt.Errorf("%w: driver already has an active trip", ErrDuplicate)

	// ErrStaleStatus is returned when a conditional update finds the record in a different status.
	ErrStaleStatus = errors.New("stale status")

	// ErrCorruptRecord is returned when a stored record cannot be mapped to a valid entity.
	ErrCorruptRecord = errors.New("corrupt record")
)
