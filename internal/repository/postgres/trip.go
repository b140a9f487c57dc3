package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"taxi24/internal/domain"
	"taxi24/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a new trip.
// The partial unique indexes on active trips turn a concurrent second request into
// ErrPassengerTripActive or ErrDriverTripActive.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (id, passenger_id, driver_id, origin_lat, origin_lng, destination_lat, destination_lng,
			status, fare, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.PassengerID,
		nullString(trip.DriverID),
		trip.Origin.Lat(),
		trip.Origin.Lng(),
		trip.Destination.Lat(),
		trip.Destination.Lng(),
		trip.Status,
		nullFare(trip.Fare),
		trip.StartedAt,
		nullTime(trip.EndedAt),
	)
	return tripInsertError(err)
}

const (
	activePassengerTripIndex = "trips_active_passenger_idx"
	activeDriverTripIndex    = "trips_active_driver_idx"
)

func tripInsertError(err error) error {
	switch violatedConstraint(err) {
	case "":
		return err
	case activePassengerTripIndex:
		return repository.ErrPassengerTripActive
	case activeDriverTripIndex:
		return repository.ErrDriverTripActive
	default:
		return repository.ErrDuplicate
	}
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

// GetAll retrieves all trips, most recent first.
func (r *TripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips ORDER BY started_at DESC, id`
	return r.list(ctx, query)
}

// GetActive retrieves trips that are PENDING or IN_PROGRESS.
func (r *TripRepository) GetActive(ctx context.Context) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE status = ANY($1) ORDER BY started_at DESC, id`
	return r.list(ctx, query, activeStatuses())
}

// UpdateIfStatus writes trip only if the stored status still equals expected.
func (r *TripRepository) UpdateIfStatus(ctx context.Context, trip *domain.Trip, expected domain.TripStatus) error {
	query := `
		UPDATE trips
		SET driver_id = $1, status = $2, fare = $3, ended_at = $4
		WHERE id = $5 AND status = $6
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(trip.DriverID),
		trip.Status,
		nullFare(trip.Fare),
		nullTime(trip.EndedAt),
		trip.ID,
		expected,
	)
	if err != nil {
		return err
	}

	if err := expectOneRow(result, repository.ErrStaleStatus); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			// Distinguish a missing trip from a lost race.
			if _, getErr := r.GetByID(ctx, trip.ID); errors.Is(getErr, repository.ErrNotFound) {
				return repository.ErrNotFound
			}
		}
		return err
	}
	return nil
}

// GetActiveByPassengerID retrieves the active trip for a passenger.
// Returns nil if no active trip exists.
func (r *TripRepository) GetActiveByPassengerID(ctx context.Context, passengerID string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE passenger_id = $1 AND status = ANY($2) LIMIT 1`
	return r.getActive(ctx, query, passengerID)
}

// GetActiveByDriverID retrieves the active trip for a driver.
// Returns nil if no active trip exists.
func (r *TripRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	if driverID == "" {
		return nil, nil
	}
	query := `SELECT ` + tripColumns + ` FROM trips WHERE driver_id = $1 AND status = ANY($2) LIMIT 1`
	return r.getActive(ctx, query, driverID)
}

func (r *TripRepository) getActive(ctx context.Context, query, ownerID string) (*domain.Trip, error) {
	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, ownerID, activeStatuses()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return trip, nil
}

func (r *TripRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Trip, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

func activeStatuses() any {
	statuses := make([]string, len(domain.ActiveTripStatuses))
	for i, s := range domain.ActiveTripStatuses {
		statuses[i] = string(s)
	}
	return pq.Array(statuses)
}

func nullFare(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
