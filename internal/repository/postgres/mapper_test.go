package postgres

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxi24/internal/domain"
	"taxi24/internal/repository"
)

// fakeRow copies fixed values into Scan destinations.
type fakeRow []any

func (r fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r[i]))
	}
	return nil
}

func driverValues(lat, lng float64) fakeRow {
	now := sql.NullTime{Time: time.Now(), Valid: true}
	return fakeRow{
		"d1", "Ana", "ana@x.com", "300", lat, lng, true, "LIC-1",
		sql.NullString{String: "ABC123", Valid: true}, sql.NullString{String: "Spark", Valid: true}, sql.NullString{},
		now, now,
	}
}

func TestScanDriver(t *testing.T) {
	d, err := scanDriver(driverValues(4.65, -74.05))
	require.NoError(t, err)
	assert.Equal(t, 4.65, d.Location.Lat())
	require.NotNil(t, d.Vehicle)
	assert.Equal(t, "ABC123", d.Vehicle.Plate)
	assert.Empty(t, d.Vehicle.Color)
}

func TestScanDriver_CorruptCoordinates(t *testing.T) {
	_, err := scanDriver(driverValues(95, 0))
	assert.ErrorIs(t, err, repository.ErrCorruptRecord)
}

func tripValues(status domain.TripStatus, fare sql.NullFloat64, endedAt sql.NullTime, originLat float64) fakeRow {
	return fakeRow{
		"t1", "p1", sql.NullString{},
		originLat, -74.0, 40.72, -74.01,
		status, fare, time.Now(), endedAt,
	}
}

func TestScanTrip(t *testing.T) {
	fare := sql.NullFloat64{Float64: 10000, Valid: true}
	ended := sql.NullTime{Time: time.Now(), Valid: true}

	trip, err := scanTrip(tripValues(domain.TripStatusCompleted, fare, ended, 40.71))
	require.NoError(t, err)
	require.NotNil(t, trip.Fare)
	assert.Equal(t, 10000.0, *trip.Fare)
	assert.NotNil(t, trip.EndedAt)
	assert.Empty(t, trip.DriverID)

	pending, err := scanTrip(tripValues(domain.TripStatusPending, sql.NullFloat64{}, sql.NullTime{}, 40.71))
	require.NoError(t, err)
	assert.Nil(t, pending.Fare)
	assert.Nil(t, pending.EndedAt)
}

func TestScanTrip_Corrupt(t *testing.T) {
	fare := sql.NullFloat64{Float64: 10000, Valid: true}
	ended := sql.NullTime{Time: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), Valid: true}

	tests := []struct {
		name string
		row  fakeRow
	}{
		{"origin out of range", tripValues(domain.TripStatusPending, sql.NullFloat64{}, sql.NullTime{}, -91)},
		{"unknown status", tripValues("PAUSED", sql.NullFloat64{}, sql.NullTime{}, 40.71)},
		{"completed without end", tripValues(domain.TripStatusCompleted, fare, sql.NullTime{}, 40.71)},
		{"pending with fare", tripValues(domain.TripStatusPending, fare, sql.NullTime{}, 40.71)},
		{"cancelled with ended_at only", tripValues(domain.TripStatusCancelled, sql.NullFloat64{}, ended, 40.71)},
		{"in progress with fare only", tripValues(domain.TripStatusInProgress, fare, sql.NullTime{}, 40.71)},
		{"completed without fare", tripValues(domain.TripStatusCompleted, sql.NullFloat64{}, ended, 40.71)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scanTrip(tt.row)
			assert.ErrorIs(t, err, repository.ErrCorruptRecord)
		})
	}
}

func TestScanPassenger(t *testing.T) {
	p, err := scanPassenger(fakeRow{"p1", "Ana", "300", sql.NullFloat64{}, sql.NullFloat64{}, time.Now()})
	require.NoError(t, err)
	assert.Equal(t, domain.Origin, p.Location)

	_, err = scanPassenger(fakeRow{"p1", "Ana", "300", sql.NullFloat64{Float64: 1, Valid: true}, sql.NullFloat64{}, time.Now()})
	assert.ErrorIs(t, err, repository.ErrCorruptRecord)
}
