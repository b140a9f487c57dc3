package domain

import "time"

// TaxRate is the share of the fare that is tax.
const TaxRate = 0.19

// Invoice is the bill issued once per completed trip.
type Invoice struct {
	ID          string
	TripID      string
	PassengerID string
	DriverID    string
	Fare        float64
	IssuedAt    time.Time
	TripDate    time.Time
	Origin      Location
	Destination Location
	LineItems   []string
	Tax         float64
	Subtotal    float64
	Total       float64
}
