package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for malformed input such as blank required fields.
	ErrValidation = errors.New("validation failed")

	// ErrOutOfRange is returned when a coordinate falls outside its valid range.
	ErrOutOfRange = errors.New("out of range")

	// ErrCoordinatesOutOfRange is a validation error for latitude/longitude pairs.
	ErrCoordinatesOutOfRange = fmt.Errorf("%w: coordinates %w", ErrValidation, ErrOutOfRange)

	// ErrInvalidTransition is returned when a trip transition is attempted from the wrong state.
	ErrInvalidTransition = errors.New("invalid trip status transition")

	// ErrIllegalState is returned when an operation's preconditions are violated by the caller.
	ErrIllegalState = errors.New("illegal state")
)
