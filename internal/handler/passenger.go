package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taxi24/internal/domain"
	"taxi24/internal/service"
)

// PassengerHandler handles HTTP requests for passengers.
type PassengerHandler struct {
	passengerService *service.PassengerService
	dispatchService  *service.DispatchService
}

// NewPassengerHandler creates a new PassengerHandler.
func NewPassengerHandler(passengerService *service.PassengerService, dispatchService *service.DispatchService) *PassengerHandler {
	return &PassengerHandler{
		passengerService: passengerService,
		dispatchService:  dispatchService,
	}
}

// SavePassengerRequest is the HTTP request body for registering or replacing a passenger.
type SavePassengerRequest struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Phone    string       `json:"phone"`
	Location *LocationDTO `json:"location"`
}

// PassengerResponse is the HTTP response for passenger data.
type PassengerResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Phone     string      `json:"phone"`
	Location  LocationDTO `json:"location"`
	CreatedAt string      `json:"created_at"`
}

func toPassengerResponse(p *domain.Passenger) PassengerResponse {
	return PassengerResponse{
		ID:        p.ID,
		Name:      p.Name,
		Phone:     p.Phone,
		Location:  locationDTO(p.Location),
		CreatedAt: formatTime(p.CreatedAt),
	}
}

// GetAll handles GET /v1/passengers
func (h *PassengerHandler) GetAll(c *gin.Context) {
	passengers, err := h.passengerService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PassengerResponse, 0, len(passengers))
	for _, p := range passengers {
		response = append(response, toPassengerResponse(p))
	}
	respondJSON(c, http.StatusOK, response)
}

// Get handles GET /v1/passengers/:id
func (h *PassengerHandler) Get(c *gin.Context) {
	passenger, found, err := h.passengerService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		respondError(c, service.ErrPassengerNotFound)
		return
	}
	respondJSON(c, http.StatusOK, toPassengerResponse(passenger))
}

// Save handles POST /v1/passengers
func (h *PassengerHandler) Save(c *gin.Context) {
	var req SavePassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidBody)
		return
	}

	passenger := &domain.Passenger{
		ID:    req.ID,
		Name:  req.Name,
		Phone: req.Phone,
	}
	if req.Location != nil {
		loc, err := req.Location.toDomain("location")
		if err != nil {
			respondError(c, err)
			return
		}
		passenger.Location = loc
	}

	saved, err := h.passengerService.Save(c.Request.Context(), passenger)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toPassengerResponse(saved))
}

// NearbyDrivers handles GET /v1/passengers/:id/nearby-drivers?max_results=
func (h *PassengerHandler) NearbyDrivers(c *gin.Context) {
	maxResults, err := queryInt(c, "max_results", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	nearby, err := h.dispatchService.NearbyDriversForPassenger(c.Request.Context(), c.Param("id"), maxResults)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toNearbyResponses(nearby))
}
