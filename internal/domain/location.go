package domain

import (
	"fmt"
	"math"

	"taxi24/internal/geo"
)

// Location is an immutable latitude/longitude pair.
// The zero value is the origin point (0, 0), which is valid.
type Location struct {
	lat float64
	lng float64
}

// Origin is the default location for entities that never reported one.
var Origin = Location{}

// NewLocation validates and wraps a coordinate pair.
func NewLocation(lat, lng float64) (Location, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Location{}, fmt.Errorf("%w: latitude %v must be between -90 and 90", ErrCoordinatesOutOfRange, lat)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return Location{}, fmt.Errorf("%w: longitude %v must be between -180 and 180", ErrCoordinatesOutOfRange, lng)
	}
	return Location{lat: lat, lng: lng}, nil
}

// MustLocation is NewLocation for constants known to be valid. It panics otherwise.
func MustLocation(lat, lng float64) Location {
	loc, err := NewLocation(lat, lng)
	if err != nil {
		panic(err)
	}
	return loc
}

// Lat returns the latitude in degrees.
func (l Location) Lat() float64 { return l.lat }

// Lng returns the longitude in degrees.
func (l Location) Lng() float64 { return l.lng }

// DistanceTo returns the great-circle distance to other in kilometers.
func (l Location) DistanceTo(other Location) float64 {
	return geo.DistanceKm(l.lat, l.lng, other.lat, other.lng)
}

func (l Location) String() string {
	return fmt.Sprintf("(%g, %g)", l.lat, l.lng)
}
