package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"taxi24/internal/domain"
	"taxi24/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	dispatchService *service.DispatchService
	tripService     *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(dispatchService *service.DispatchService, tripService *service.TripService) *TripHandler {
	return &TripHandler{
		dispatchService: dispatchService,
		tripService:     tripService,
	}
}

// RequestTripRequest is the HTTP request body for requesting a trip.
type RequestTripRequest struct {
	PassengerID string       `json:"passenger_id"`
	DriverID    string       `json:"driver_id"`
	Origin      *LocationDTO `json:"origin"`
	Destination *LocationDTO `json:"destination"`
}

// CompleteTripRequest is the optional HTTP request body for completing a trip.
type CompleteTripRequest struct {
	Fare *float64 `json:"fare"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	ID          string           `json:"id"`
	PassengerID string           `json:"passenger_id"`
	DriverID    string           `json:"driver_id,omitempty"`
	Origin      LocationDTO      `json:"origin"`
	Destination LocationDTO      `json:"destination"`
	Status      string           `json:"status"`
	StartedAt   string           `json:"started_at"`
	EndedAt     string           `json:"ended_at,omitempty"`
	Fare        *float64         `json:"fare,omitempty"`
	Invoice     *InvoiceResponse `json:"invoice,omitempty"`
}

func toTripResponse(t *domain.Trip) TripResponse {
	return TripResponse{
		ID:          t.ID,
		PassengerID: t.PassengerID,
		DriverID:    t.DriverID,
		Origin:      locationDTO(t.Origin),
		Destination: locationDTO(t.Destination),
		Status:      string(t.Status),
		StartedAt:   formatTime(t.StartedAt),
		EndedAt:     formatTimePtr(t.EndedAt),
		Fare:        t.Fare,
	}
}

func toTripResponses(trips []*domain.Trip) []TripResponse {
	response := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		response = append(response, toTripResponse(t))
	}
	return response
}

// GetAll handles GET /v1/trips
func (h *TripHandler) GetAll(c *gin.Context) {
	trips, err := h.tripService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponses(trips))
}

// GetActive handles GET /v1/trips/active
func (h *TripHandler) GetActive(c *gin.Context) {
	trips, err := h.tripService.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponses(trips))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, found, err := h.tripService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		respondError(c, service.ErrTripNotFound)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// RequestTrip handles POST /v1/trips
func (h *TripHandler) RequestTrip(c *gin.Context) {
	var req RequestTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidBody)
		return
	}

	origin, err := req.Origin.toDomain("origin")
	if err != nil {
		respondError(c, err)
		return
	}
	destination, err := req.Destination.toDomain("destination")
	if err != nil {
		respondError(c, err)
		return
	}

	trip, err := h.dispatchService.RequestTrip(c.Request.Context(), service.RequestTripRequest{
		PassengerID: req.PassengerID,
		Origin:      origin,
		Destination: destination,
		DriverID:    req.DriverID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// StartTrip handles POST /v1/trips/:id/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	trip, err := h.dispatchService.StartTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	trip, err := h.dispatchService.CancelTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CompleteTrip handles POST /v1/trips/:id/complete
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	var req CompleteTripRequest
	// The body is optional.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, errInvalidBody)
		return
	}

	result, err := h.dispatchService.CompleteTrip(c.Request.Context(), c.Param("id"), req.Fare)
	if err != nil {
		respondError(c, err)
		return
	}

	response := toTripResponse(result.Trip)
	invoice := toInvoiceResponse(result.Invoice)
	response.Invoice = &invoice
	respondJSON(c, http.StatusOK, response)
}
