package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocation_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{name: "north pole on antimeridian", lat: 90, lng: 180},
		{name: "south pole", lat: -90, lng: -180},
		{name: "origin", lat: 0, lng: 0},
		{name: "latitude too high", lat: 91, lng: 0, wantErr: true},
		{name: "latitude too low", lat: -90.0001, lng: 0, wantErr: true},
		{name: "longitude too high", lat: 0, lng: 181, wantErr: true},
		{name: "longitude too low", lat: 0, lng: -180.5, wantErr: true},
		{name: "nan latitude", lat: math.NaN(), lng: 0, wantErr: true},
		{name: "nan longitude", lat: 0, lng: math.NaN(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := NewLocation(tt.lat, tt.lng)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				assert.ErrorIs(t, err, ErrOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lat, loc.Lat())
			assert.Equal(t, tt.lng, loc.Lng())
		})
	}
}

func TestLocation_DistanceTo(t *testing.T) {
	ny := MustLocation(40.7128, -74.0060)
	north := MustLocation(40.7128+0.009, -74.0060)

	assert.Equal(t, 0.0, ny.DistanceTo(ny))
	assert.InDelta(t, 1.0, ny.DistanceTo(north), 0.05)
	assert.InDelta(t, ny.DistanceTo(north), north.DistanceTo(ny), 1e-9)
}

func TestOrigin_IsZeroValue(t *testing.T) {
	var l Location
	assert.Equal(t, Origin, l)
	assert.Equal(t, 0.0, Origin.Lat())
	assert.Equal(t, 0.0, Origin.Lng())
}
