package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taxi24/internal/domain"
	"taxi24/internal/service"
)

// InvoiceHandler handles HTTP requests for invoices.
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// InvoiceResponse is the HTTP response for invoice data.
type InvoiceResponse struct {
	ID          string      `json:"id"`
	TripID      string      `json:"trip_id"`
	PassengerID string      `json:"passenger_id"`
	DriverID    string      `json:"driver_id,omitempty"`
	Fare        float64     `json:"fare"`
	IssuedAt    string      `json:"issued_at"`
	TripDate    string      `json:"trip_date"`
	Origin      LocationDTO `json:"origin"`
	Destination LocationDTO `json:"destination"`
	LineItems   []string    `json:"line_items"`
	Tax         float64     `json:"tax"`
	Subtotal    float64     `json:"subtotal"`
	Total       float64     `json:"total"`
}

func toInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:          inv.ID,
		TripID:      inv.TripID,
		PassengerID: inv.PassengerID,
		DriverID:    inv.DriverID,
		Fare:        inv.Fare,
		IssuedAt:    formatTime(inv.IssuedAt),
		TripDate:    formatTime(inv.TripDate),
		Origin:      locationDTO(inv.Origin),
		Destination: locationDTO(inv.Destination),
		LineItems:   inv.LineItems,
		Tax:         inv.Tax,
		Subtotal:    inv.Subtotal,
		Total:       inv.Total,
	}
}

func respondInvoices(c *gin.Context, invoices []*domain.Invoice, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	response := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		response = append(response, toInvoiceResponse(inv))
	}
	respondJSON(c, http.StatusOK, response)
}

// GetAll handles GET /v1/invoices
func (h *InvoiceHandler) GetAll(c *gin.Context) {
	invoices, err := h.invoiceService.List(c.Request.Context())
	respondInvoices(c, invoices, err)
}

// Get handles GET /v1/invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoice, err := h.invoiceService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toInvoiceResponse(invoice))
}

// GetByTrip handles GET /v1/invoices/trip/:tripId
func (h *InvoiceHandler) GetByTrip(c *gin.Context) {
	invoice, err := h.invoiceService.ByTrip(c.Request.Context(), c.Param("tripId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toInvoiceResponse(invoice))
}

// GetByPassenger handles GET /v1/invoices/passenger/:passengerId
func (h *InvoiceHandler) GetByPassenger(c *gin.Context) {
	invoices, err := h.invoiceService.ByPassenger(c.Request.Context(), c.Param("passengerId"))
	respondInvoices(c, invoices, err)
}

// GetByDriver handles GET /v1/invoices/driver/:driverId
func (h *InvoiceHandler) GetByDriver(c *gin.Context) {
	invoices, err := h.invoiceService.ByDriver(c.Request.Context(), c.Param("driverId"))
	respondInvoices(c, invoices, err)
}
