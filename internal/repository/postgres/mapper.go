package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"taxi24/internal/domain"
	"taxi24/internal/repository"
)

// Row shapes mirror the table columns. Conversion to domain types re-validates
// stored coordinates and fails with repository.ErrCorruptRecord instead of
// substituting a default.

type driverRow struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Lat, Lng     float64
	Available    bool
	License      string
	VehiclePlate sql.NullString
	VehicleModel sql.NullString
	VehicleColor sql.NullString
	CreatedAt    sql.NullTime
	UpdatedAt    sql.NullTime
}

const driverColumns = `id, name, email, phone, lat, lng, available, COALESCE(license, ''),
	vehicle_plate, vehicle_model, vehicle_color, created_at, updated_at`

func scanDriver(s scanner) (*domain.Driver, error) {
	var row driverRow
	if err := s.Scan(
		&row.ID, &row.Name, &row.Email, &row.Phone,
		&row.Lat, &row.Lng, &row.Available, &row.License,
		&row.VehiclePlate, &row.VehicleModel, &row.VehicleColor,
		&row.CreatedAt, &row.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (row driverRow) toDomain() (*domain.Driver, error) {
	loc, err := toLocation("driver", row.ID, row.Lat, row.Lng)
	if err != nil {
		return nil, err
	}
	d := &domain.Driver{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Phone:     row.Phone,
		Location:  loc,
		Available: row.Available,
		License:   row.License,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
	if row.VehiclePlate.Valid {
		d.Vehicle = &domain.Vehicle{
			Plate: row.VehiclePlate.String,
			Model: row.VehicleModel.String,
			Color: row.VehicleColor.String,
		}
	}
	return d, nil
}

const passengerColumns = `id, name, phone, lat, lng, created_at`

func scanPassenger(s scanner) (*domain.Passenger, error) {
	var (
		p        domain.Passenger
		lat, lng sql.NullFloat64
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Phone, &lat, &lng, &p.CreatedAt); err != nil {
		return nil, err
	}
	// A passenger that never reported a location sits at the origin.
	if lat.Valid || lng.Valid {
		if !lat.Valid || !lng.Valid {
			return nil, fmt.Errorf("%w: passenger %s has a partial location", repository.ErrCorruptRecord, p.ID)
		}
		loc, err := toLocation("passenger", p.ID, lat.Float64, lng.Float64)
		if err != nil {
			return nil, err
		}
		p.Location = loc
	}
	return &p, nil
}

const tripColumns = `id, passenger_id, driver_id, origin_lat, origin_lng, destination_lat, destination_lng,
	status, fare, started_at, ended_at`

func scanTrip(s scanner) (*domain.Trip, error) {
	var (
		trip                 domain.Trip
		driverID             sql.NullString
		originLat, originLng float64
		destLat, destLng     float64
		fare                 sql.NullFloat64
		endedAt              sql.NullTime
	)
	if err := s.Scan(
		&trip.ID, &trip.PassengerID, &driverID,
		&originLat, &originLng, &destLat, &destLng,
		&trip.Status, &fare, &trip.StartedAt, &endedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if trip.Origin, err = toLocation("trip origin", trip.ID, originLat, originLng); err != nil {
		return nil, err
	}
	if trip.Destination, err = toLocation("trip destination", trip.ID, destLat, destLng); err != nil {
		return nil, err
	}
	if !trip.Status.Valid() {
		return nil, fmt.Errorf("%w: trip %s has unknown status %q", repository.ErrCorruptRecord, trip.ID, trip.Status)
	}
	completed := trip.Status == domain.TripStatusCompleted
	if fare.Valid != completed || endedAt.Valid != completed {
		return nil, fmt.Errorf("%w: trip %s in status %s has inconsistent fare/ended_at", repository.ErrCorruptRecord, trip.ID, trip.Status)
	}

	trip.DriverID = driverID.String
	if fare.Valid {
		trip.Fare = &fare.Float64
	}
	if endedAt.Valid {
		trip.EndedAt = &endedAt.Time
	}
	return &trip, nil
}

func toLocation(kind, id string, lat, lng float64) (domain.Location, error) {
	loc, err := domain.NewLocation(lat, lng)
	if err != nil {
		return domain.Location{}, fmt.Errorf("%w: %s %s: %v", repository.ErrCorruptRecord, kind, id, err)
	}
	return loc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
