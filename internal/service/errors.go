package service

import (
	"errors"
	"fmt"

	"taxi24/internal/domain"
	"taxi24/internal/repository"
)

var (
	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = fmt.Errorf("%w: invalid driver id", domain.ErrValidation)

	// ErrInvalidPassengerID is returned when passenger ID is empty.
	ErrInvalidPassengerID = fmt.Errorf("%w: invalid passenger id", domain.ErrValidation)

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = fmt.Errorf("%w: invalid trip id", domain.ErrValidation)

	// ErrMissingRequiredField is returned when a required text field is blank.
	ErrMissingRequiredField = fmt.Errorf("%w: missing required field", domain.ErrValidation)

	// ErrInvalidFare is returned for a negative or NaN fare override.
	ErrInvalidFare = fmt.Errorf("%w: fare must be a non-negative number", domain.ErrValidation)

	// ErrInvalidRadius is returned for a negative or NaN search radius.
	ErrInvalidRadius = fmt.Errorf("%w: radius must be a non-negative number", domain.ErrValidation)

	// ErrDriverNotFound is returned when a referenced driver does not exist.
	ErrDriverNotFound = fmt.Errorf("driver: %w", repository.ErrNotFound)

	// ErrPassengerNotFound is returned when a referenced passenger does not exist.
	ErrPassengerNotFound = fmt.Errorf("passenger: %w", repository.ErrNotFound)

	// ErrTripNotFound is returned when a referenced trip does not exist.
	ErrTripNotFound = fmt.Errorf("trip: %w", repository.ErrNotFound)

	// ErrInvoiceNotFound is returned when a referenced invoice does not exist.
	ErrInvoiceNotFound = fmt.Errorf("invoice: %w", repository.ErrNotFound)

	// ErrEmailTaken is returned when a driver email belongs to another driver.
	ErrEmailTaken = errors.New("email already registered")

	// ErrPassengerHasActiveTrip is returned when passenger already has an active trip.
	ErrPassengerHasActiveTrip = errors.New("passenger already has an active trip")

	// ErrDriverHasActiveTrip is returned when driver already has an active trip.
	ErrDriverHasActiveTrip = errors.New("driver already has an active trip")

	// ErrRequestInProgress is returned when another trip request holds the same lock.
	ErrRequestInProgress = errors.New("another trip request is in progress")
)
