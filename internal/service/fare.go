package service

import (
	"math"

	"taxi24/internal/domain"
)

// DefaultFlatFare is the fixed amount charged per completed trip.
const DefaultFlatFare = 10000.0

// FarePolicy prices a trip at completion time.
type FarePolicy interface {
	Fare(trip *domain.Trip) float64
}

// FlatFare charges the same amount for every trip.
type FlatFare struct {
	Amount float64
}

func (p FlatFare) Fare(*domain.Trip) float64 {
	return p.Amount
}

// DistanceFare charges a base amount plus a per-km rate on the straight-line
// origin to destination distance, never less than Minimum.
type DistanceFare struct {
	Base    float64
	PerKm   float64
	Minimum float64
}

func (p DistanceFare) Fare(trip *domain.Trip) float64 {
	km := trip.Origin.DistanceTo(trip.Destination)
	fare := p.Base + km*p.PerKm
	return roundCents(math.Max(fare, p.Minimum))
}

// resolveFare applies a caller override on top of the policy.
// A positive override wins; nil or zero falls back to the policy.
func resolveFare(policy FarePolicy, trip *domain.Trip, override *float64) (float64, error) {
	if override != nil {
		if math.IsNaN(*override) || math.IsInf(*override, 0) || *override < 0 {
			return 0, ErrInvalidFare
		}
		if *override > 0 {
			return *override, nil
		}
	}
	return policy.Fare(trip), nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
