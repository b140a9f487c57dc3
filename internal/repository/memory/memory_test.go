package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxi24/internal/domain"
	"taxi24/internal/repository"
)

func TestDriverRepository_SaveAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewDriverRepository()

	require.NoError(t, repo.Save(ctx, &domain.Driver{ID: "b", Email: "b@x.com", Available: true}))
	require.NoError(t, repo.Save(ctx, &domain.Driver{ID: "a", Email: "a@x.com"}))
	require.NoError(t, repo.Save(ctx, &domain.Driver{ID: "b", Email: "b@x.com", Name: "Bea", Available: true}))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "Bea", all[0].Name)
	assert.Equal(t, "a", all[1].ID)

	available, err := repo.GetAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "b", available[0].ID)
}

func TestDriverRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewDriverRepository()

	require.NoError(t, repo.Save(ctx, &domain.Driver{ID: "a", Email: "same@x.com"}))
	err := repo.Save(ctx, &domain.Driver{ID: "b", Email: "SAME@x.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestDriverRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewDriverRepository()
	require.NoError(t, repo.Save(ctx, &domain.Driver{ID: "a", Vehicle: &domain.Vehicle{Plate: "ABC123"}}))

	d, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	d.Vehicle.Plate = "changed"

	again, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", again.Vehicle.Plate)
}

func TestDriverRepository_Updates(t *testing.T) {
	ctx := context.Background()
	repo := NewDriverRepository()
	require.NoError(t, repo.Save(ctx, &domain.Driver{ID: "a"}))

	loc := domain.MustLocation(4.6, -74.08)
	require.NoError(t, repo.UpdateLocation(ctx, "a", loc))
	require.NoError(t, repo.UpdateAvailability(ctx, "a", true))

	d, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, loc, d.Location)
	assert.True(t, d.Available)

	assert.ErrorIs(t, repo.UpdateAvailability(ctx, "missing", true), repository.ErrNotFound)
	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTripRepository_UpdateIfStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewTripRepository()
	trip := domain.NewTrip("t1", "p1", domain.Origin, domain.Origin, "", time.Now())
	require.NoError(t, repo.Create(ctx, trip))

	require.NoError(t, trip.Start())
	require.NoError(t, repo.UpdateIfStatus(ctx, trip, domain.TripStatusPending))

	// Second writer still believes the trip is pending.
	err := repo.UpdateIfStatus(ctx, trip, domain.TripStatusPending)
	assert.ErrorIs(t, err, repository.ErrStaleStatus)

	stored, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusInProgress, stored.Status)
}

func TestTripRepository_CreateRejectsSecondActiveTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewTripRepository()
	require.NoError(t, repo.Create(ctx, domain.NewTrip("t1", "p1", domain.Origin, domain.Origin, "d1", time.Now())))

	err := repo.Create(ctx, domain.NewTrip("t2", "p1", domain.Origin, domain.Origin, "", time.Now()))
	assert.ErrorIs(t, err, repository.ErrPassengerTripActive)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	err = repo.Create(ctx, domain.NewTrip("t3", "p2", domain.Origin, domain.Origin, "d1", time.Now()))
	assert.ErrorIs(t, err, repository.ErrDriverTripActive)
	assert.NotErrorIs(t, err, repository.ErrPassengerTripActive)

	// Unassigned trips never clash on the driver.
	require.NoError(t, repo.Create(ctx, domain.NewTrip("t4", "p3", domain.Origin, domain.Origin, "", time.Now())))

	// A terminal trip frees the passenger and the driver.
	trip, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	require.NoError(t, trip.Cancel())
	require.NoError(t, repo.UpdateIfStatus(ctx, trip, domain.TripStatusPending))
	assert.NoError(t, repo.Create(ctx, domain.NewTrip("t5", "p1", domain.Origin, domain.Origin, "d1", time.Now())))
}

func TestTripRepository_ActiveLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewTripRepository()

	done := domain.NewTrip("t1", "p1", domain.Origin, domain.Origin, "d1", time.Now())
	require.NoError(t, done.Cancel())
	require.NoError(t, repo.Create(ctx, done))

	active := domain.NewTrip("t2", "p1", domain.Origin, domain.Origin, "d1", time.Now())
	require.NoError(t, repo.Create(ctx, active))

	got, err := repo.GetActiveByPassengerID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "t2", got.ID)

	got, err = repo.GetActiveByDriverID(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "t2", got.ID)

	got, err = repo.GetActiveByDriverID(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	list, err := repo.GetActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "t2", all[0].ID)
}

func TestInvoiceRepository_CreateIfAbsent_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository()

	var created int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inv := &domain.Invoice{ID: string(rune('a' + i)), TripID: "t1", PassengerID: "p1"}
			_, ok, err := repo.CreateIfAbsent(ctx, inv)
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&created, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created)
	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	byTrip, err := repo.GetByTripID(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, byTrip)
	assert.Equal(t, all[0].ID, byTrip.ID)

	none, err := repo.GetByTripID(ctx, "t2")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestPassengerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPassengerRepository()

	require.NoError(t, repo.Save(ctx, &domain.Passenger{ID: "p1", Name: "Ana"}))
	require.NoError(t, repo.Save(ctx, &domain.Passenger{ID: "p2", Name: "Luis"}))

	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.Origin, p.Location)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "p1", all[0].ID)

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
