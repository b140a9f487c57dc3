package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taxi24/internal/domain"
	"taxi24/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	directory *service.DriverDirectory
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(directory *service.DriverDirectory) *DriverHandler {
	return &DriverHandler{directory: directory}
}

// VehicleDTO is the wire form of a vehicle.
type VehicleDTO struct {
	Plate string `json:"plate"`
	Model string `json:"model"`
	Color string `json:"color"`
}

// SaveDriverRequest is the HTTP request body for registering or replacing a driver.
type SaveDriverRequest struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone"`
	Location  *LocationDTO `json:"location"`
	Available bool         `json:"available"`
	License   string       `json:"license"`
	Vehicle   *VehicleDTO  `json:"vehicle"`
}

// UpdateLocationRequest is the HTTP request body for updating driver location.
type UpdateLocationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// SetAvailabilityRequest is the HTTP request body for toggling availability.
type SetAvailabilityRequest struct {
	Available *bool `json:"available"`
}

// DriverResponse is the HTTP response for driver data.
type DriverResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
	Location   LocationDTO `json:"location"`
	Available  bool        `json:"available"`
	License    string      `json:"license,omitempty"`
	Vehicle    *VehicleDTO `json:"vehicle,omitempty"`
	CreatedAt  string      `json:"created_at"`
	UpdatedAt  string      `json:"updated_at"`
	DistanceKm *float64    `json:"distance_km,omitempty"`
}

func toDriverResponse(d *domain.Driver) DriverResponse {
	resp := DriverResponse{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		Location:  locationDTO(d.Location),
		Available: d.Available,
		License:   d.License,
		CreatedAt: formatTime(d.CreatedAt),
		UpdatedAt: formatTime(d.UpdatedAt),
	}
	if d.Vehicle != nil {
		resp.Vehicle = &VehicleDTO{Plate: d.Vehicle.Plate, Model: d.Vehicle.Model, Color: d.Vehicle.Color}
	}
	return resp
}

func toDriverResponses(drivers []*domain.Driver) []DriverResponse {
	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, toDriverResponse(d))
	}
	return response
}

func toNearbyResponses(nearby []domain.NearbyDriver) []DriverResponse {
	response := make([]DriverResponse, 0, len(nearby))
	for _, n := range nearby {
		r := toDriverResponse(n.Driver)
		dist := n.DistanceKm
		r.DistanceKm = &dist
		response = append(response, r)
	}
	return response
}

// GetAll handles GET /v1/drivers
func (h *DriverHandler) GetAll(c *gin.Context) {
	drivers, err := h.directory.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toDriverResponses(drivers))
}

// GetAvailable handles GET /v1/drivers/available
func (h *DriverHandler) GetAvailable(c *gin.Context) {
	drivers, err := h.directory.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toDriverResponses(drivers))
}

// Nearby handles GET /v1/drivers/nearby?lat=&lng=&radius_km=&limit=
func (h *DriverHandler) Nearby(c *gin.Context) {
	lat, err := queryFloat(c, "lat", nil)
	if err != nil {
		respondError(c, err)
		return
	}
	lng, err := queryFloat(c, "lng", nil)
	if err != nil {
		respondError(c, err)
		return
	}
	radius, err := queryFloat(c, "radius_km", ptrTo(service.DefaultDispatchRadiusKm))
	if err != nil {
		respondError(c, err)
		return
	}
	limit, err := queryInt(c, "limit", service.DefaultNearbyLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	point, err := domain.NewLocation(lat, lng)
	if err != nil {
		respondError(c, err)
		return
	}

	nearby, err := h.directory.FindNearby(c.Request.Context(), point, radius, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toNearbyResponses(nearby))
}

// Get handles GET /v1/drivers/:id
func (h *DriverHandler) Get(c *gin.Context) {
	driver, found, err := h.directory.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		respondError(c, service.ErrDriverNotFound)
		return
	}
	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// Save handles POST /v1/drivers
func (h *DriverHandler) Save(c *gin.Context) {
	var req SaveDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidBody)
		return
	}

	driver := &domain.Driver{
		ID:        req.ID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Available: req.Available,
		License:   req.License,
	}
	if req.Location != nil {
		loc, err := req.Location.toDomain("location")
		if err != nil {
			respondError(c, err)
			return
		}
		driver.Location = loc
	}
	if req.Vehicle != nil {
		driver.Vehicle = &domain.Vehicle{Plate: req.Vehicle.Plate, Model: req.Vehicle.Model, Color: req.Vehicle.Color}
	}

	saved, err := h.directory.Save(c.Request.Context(), driver)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toDriverResponse(saved))
}

// UpdateLocation handles PUT /v1/drivers/:id/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidBody)
		return
	}

	loc, err := (&LocationDTO{Lat: req.Lat, Lng: req.Lng}).toDomain("location")
	if err != nil {
		respondError(c, err)
		return
	}

	driver, err := h.directory.UpdateLocation(c.Request.Context(), c.Param("id"), loc)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// SetAvailability handles PUT /v1/drivers/:id/availability
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidBody)
		return
	}
	if req.Available == nil {
		respondError(c, fmt.Errorf("%w: available is required", domain.ErrValidation))
		return
	}

	driver, err := h.directory.SetAvailability(c.Request.Context(), c.Param("id"), *req.Available)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// queryFloat parses a float query parameter. A nil def makes it required.
func queryFloat(c *gin.Context, name string, def *float64) (float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		if def == nil {
			return 0, fmt.Errorf("%w: query parameter %s is required", domain.ErrValidation, name)
		}
		return *def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: query parameter %s must be a number", domain.ErrValidation, name)
	}
	return v, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: query parameter %s must be a non-negative integer", domain.ErrValidation, name)
	}
	return v, nil
}

func ptrTo[T any](v T) *T { return &v }
