package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taxi24/internal/domain"
	"taxi24/internal/repository"
	"taxi24/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

var errInvalidBody = fmt.Errorf("%w: invalid request body", domain.ErrValidation)

// respondError sends an error response with the appropriate HTTP status code.
// The error is attached to the context so the access log records it.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	_ = c.Error(err)
	if code == http.StatusInternalServerError {
		c.JSON(code, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps domain, service and repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest

	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrPassengerHasActiveTrip),
		errors.Is(err, service.ErrDriverHasActiveTrip),
		errors.Is(err, service.ErrRequestInProgress):
		return http.StatusConflict

	// ErrIllegalState and ErrCorruptRecord are server faults.
	default:
		return http.StatusInternalServerError
	}
}

// LocationDTO is the wire form of a coordinate pair.
type LocationDTO struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (l *LocationDTO) toDomain(field string) (domain.Location, error) {
	if l == nil || l.Lat == nil || l.Lng == nil {
		return domain.Location{}, fmt.Errorf("%w: %s.lat and %s.lng are required", domain.ErrValidation, field, field)
	}
	loc, err := domain.NewLocation(*l.Lat, *l.Lng)
	if err != nil {
		return domain.Location{}, fmt.Errorf("%s: %w", field, err)
	}
	return loc, nil
}

func locationDTO(l domain.Location) LocationDTO {
	lat, lng := l.Lat(), l.Lng()
	return LocationDTO{Lat: &lat, Lng: &lng}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
