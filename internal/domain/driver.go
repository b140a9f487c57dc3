package domain

import "time"

// Vehicle describes the car a driver operates.
type Vehicle struct {
	Plate string
	Model string
	Color string
}

// Driver represents a driver in the system.
type Driver struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Location  Location
	Available bool
	License   string
	Vehicle   *Vehicle // Optional
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WithinRadius reports whether the driver is at most radiusKm away from point.
func (d *Driver) WithinRadius(point Location, radiusKm float64) bool {
	return d.Location.DistanceTo(point) <= radiusKm
}

// NearbyDriver pairs a driver with its distance from a query point.
type NearbyDriver struct {
	Driver     *Driver
	DistanceKm float64
}
