package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taxi24/internal/domain"
	"taxi24/internal/redis"
	"taxi24/internal/repository"
	"taxi24/internal/repository/memory"
)

func completedTrip(t *testing.T, fare float64, duration time.Duration) *domain.Trip {
	t.Helper()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	trip := domain.NewTrip("trip-1", "p-1", domain.MustLocation(4.6097, -74.0817), domain.MustLocation(4.65, -74.05), "d-1", start)
	require.NoError(t, trip.Start())
	require.NoError(t, trip.Complete(start.Add(duration), fare))
	return trip
}

func TestBuildInvoice(t *testing.T) {
	trip := completedTrip(t, 10000, 25*time.Minute+20*time.Second)
	issuedAt := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	inv, err := BuildInvoice(trip, issuedAt)
	require.NoError(t, err)

	assert.Regexp(t, `^INV-1714559400000-[0-9a-f]{8}$`, inv.ID)
	assert.Equal(t, "trip-1", inv.TripID)
	assert.Equal(t, "p-1", inv.PassengerID)
	assert.Equal(t, "d-1", inv.DriverID)
	assert.Equal(t, 10000.0, inv.Fare)
	assert.Equal(t, 1900.0, inv.Tax)
	assert.Equal(t, 8100.0, inv.Subtotal)
	assert.Equal(t, 10000.0, inv.Total)
	assert.Equal(t, trip.StartedAt, inv.TripDate)
	assert.Equal(t, issuedAt, inv.IssuedAt)
	assert.Equal(t, []string{
		"Trip from (4.6097, -74.0817) to (4.65, -74.05)",
		"Duration: 25 minutes",
		"Subtotal: $8100.00",
		"Tax (19%): $1900.00",
	}, inv.LineItems)
}

func TestBuildInvoice_TotalsAddUp(t *testing.T) {
	for _, fare := range []float64{1, 12.34, 999.99, 10000, 25750.5} {
		inv, err := BuildInvoice(completedTrip(t, fare, time.Minute), time.Now())
		require.NoError(t, err)
		assert.InDelta(t, inv.Total, inv.Subtotal+inv.Tax, 0.005, "fare=%v", fare)
		assert.Equal(t, fare, inv.Total)
	}
}

func TestBuildInvoice_DurationRoundsToNearestMinute(t *testing.T) {
	inv, err := BuildInvoice(completedTrip(t, 100, 90*time.Second), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Duration: 2 minutes", inv.LineItems[1])

	inv, err = BuildInvoice(completedTrip(t, 100, 29*time.Second), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Duration: 0 minutes", inv.LineItems[1])
}

func TestBuildInvoice_IllegalState(t *testing.T) {
	trip := domain.NewTrip("trip-1", "p-1", domain.Origin, domain.Origin, "", time.Now())

	_, err := BuildInvoice(trip, time.Now())
	assert.ErrorIs(t, err, domain.ErrIllegalState)

	require.NoError(t, trip.Start())
	_, err = BuildInvoice(trip, time.Now())
	assert.ErrorIs(t, err, domain.ErrIllegalState)

	_, err = BuildInvoice(nil, time.Now())
	assert.ErrorIs(t, err, domain.ErrIllegalState)
}

func TestBuildInvoice_DistinctIDs(t *testing.T) {
	trip := completedTrip(t, 10000, time.Minute)
	at := time.Now()

	a, err := BuildInvoice(trip, at)
	require.NoError(t, err)
	b, err := BuildInvoice(trip, at)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestInvoiceService_IssueIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trip := completedTrip(t, 10000, time.Minute)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inv, err := env.invoiceSvc.Issue(ctx, trip)
			if assert.NoError(t, err) {
				ids[i] = inv.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	all, err := env.invoiceSvc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	var issued int
	for _, typ := range env.publisher.types() {
		if typ == "invoice.issued" {
			issued++
		}
	}
	assert.Equal(t, 1, issued)
}

func TestInvoiceService_ByTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.invoiceSvc.ByTrip(ctx, "missing")
	assert.ErrorIs(t, err, ErrTripNotFound)

	pending := domain.NewTrip("pending", "p-1", domain.Origin, domain.Origin, "", env.clock.Now())
	require.NoError(t, env.trips.Create(ctx, pending))
	_, err = env.invoiceSvc.ByTrip(ctx, "pending")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// A completed trip whose invoice was lost is invoiced on first lookup.
	done := completedTrip(t, 5000, time.Minute)
	require.NoError(t, env.trips.Create(ctx, done))
	inv, err := env.invoiceSvc.ByTrip(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, inv.Total)

	again, err := env.invoiceSvc.ByTrip(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, again.ID)
}

type fakeInvoiceCache struct {
	mu      sync.Mutex
	entries map[string]*redis.CachedInvoice
	reads   int
}

func (c *fakeInvoiceCache) GetInvoice(ctx context.Context, id string) (*redis.CachedInvoice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	return c.entries[id], nil
}

func (c *fakeInvoiceCache) SetInvoice(ctx context.Context, inv *redis.CachedInvoice) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]*redis.CachedInvoice)
	}
	c.entries[inv.ID] = inv
	return nil
}

func TestInvoiceService_GetUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := &fakeInvoiceCache{}
	repo := memory.NewInvoiceRepository()
	svc := NewInvoiceService(repo, memory.NewTripRepository(), cache, nil, zap.NewNop())

	issued, err := svc.Issue(ctx, completedTrip(t, 10000, time.Minute))
	require.NoError(t, err)
	require.Contains(t, cache.entries, issued.ID)

	got, err := svc.Get(ctx, issued.ID)
	require.NoError(t, err)
	assert.Equal(t, issued.Total, got.Total)
	assert.Equal(t, issued.LineItems, got.LineItems)
	assert.Equal(t, issued.Origin, got.Origin)
	assert.Equal(t, 1, cache.reads)

	_, err = svc.Get(ctx, "INV-nope")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}
