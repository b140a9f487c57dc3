package postgres

import (
	"context"
	"database/sql"
	"errors"

	"taxi24/internal/domain"
	"taxi24/internal/repository"
)

// PassengerRepository implements repository.PassengerRepository using PostgreSQL.
type PassengerRepository struct {
	q Querier
}

// NewPassengerRepository creates a new PassengerRepository.
func NewPassengerRepository(db *sql.DB) *PassengerRepository {
	return &PassengerRepository{q: db}
}

// Save inserts or replaces a passenger.
func (r *PassengerRepository) Save(ctx context.Context, passenger *domain.Passenger) error {
	query := `
		INSERT INTO passengers (id, name, phone, lat, lng, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng
	`
	_, err := r.q.ExecContext(ctx, query,
		passenger.ID,
		passenger.Name,
		passenger.Phone,
		passenger.Location.Lat(),
		passenger.Location.Lng(),
		passenger.CreatedAt,
	)
	return err
}

// GetByID retrieves a passenger by ID.
func (r *PassengerRepository) GetByID(ctx context.Context, id string) (*domain.Passenger, error) {
	query := `SELECT ` + passengerColumns + ` FROM passengers WHERE id = $1`

	passenger, err := scanPassenger(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return passenger, nil
}

// GetAll retrieves all passengers in insertion order.
func (r *PassengerRepository) GetAll(ctx context.Context) ([]*domain.Passenger, error) {
	query := `SELECT ` + passengerColumns + ` FROM passengers ORDER BY created_at, id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passengers []*domain.Passenger
	for rows.Next() {
		passenger, err := scanPassenger(rows)
		if err != nil {
			return nil, err
		}
		passengers = append(passengers, passenger)
	}
	return passengers, rows.Err()
}

var _ repository.PassengerRepository = (*PassengerRepository)(nil)
