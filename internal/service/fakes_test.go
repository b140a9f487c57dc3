package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"taxi24/internal/domain"
	"taxi24/internal/events"
	"taxi24/internal/geo"
	"taxi24/internal/redis"
	"taxi24/internal/repository/memory"
)

// fakeLocationStore mimics the Redis geo index in memory.
type fakeLocationStore struct {
	mu     sync.Mutex
	points map[string]redis.DriverLocation
	err    error
}

func newFakeLocationStore() *fakeLocationStore {
	return &fakeLocationStore{points: make(map[string]redis.DriverLocation)}
}

func (f *fakeLocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points[driverID] = redis.DriverLocation{DriverID: driverID, Lat: lat, Lng: lng}
	return nil
}

func (f *fakeLocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []redis.DriverLocation
	for _, p := range f.points {
		if geo.DistanceKm(lat, lng, p.Lat, p.Lng) <= radiusKm*1.01 {
			out = append(out, p)
		}
	}
	// Redis orders by distance only; ties come back in arbitrary order.
	sort.Slice(out, func(i, j int) bool {
		return geo.DistanceKm(lat, lng, out[i].Lat, out[i].Lng) < geo.DistanceKm(lat, lng, out[j].Lat, out[j].Lng)
	})
	return out, nil
}

func (f *fakeLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.points, driverID)
	return nil
}

func (f *fakeLocationStore) has(driverID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.points[driverID]
	return ok
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// recordingSubscribers counts messages per subscriber.
type recordingSubscribers struct {
	mu   sync.Mutex
	sent map[string]int
}

func (s *recordingSubscribers) Send(subscriberID string, v any) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent == nil {
		s.sent = make(map[string]int)
	}
	s.sent[subscriberID]++
	return 1
}

func (s *recordingSubscribers) count(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[id]
}

// fixedClock advances only when told to.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var errBroker = errors.New("broker unavailable")

// testEnv wires every service over in-memory repositories.
type testEnv struct {
	clock         *fixedClock
	drivers       *memory.DriverRepository
	passengers    *memory.PassengerRepository
	trips         *memory.TripRepository
	invoices      *memory.InvoiceRepository
	publisher     *recordingPublisher
	subscribers   *recordingSubscribers
	directory     *DriverDirectory
	passengerSvc  *PassengerService
	notifications *NotificationService
	invoiceSvc    *InvoiceService
	tripSvc       *TripService
	dispatch      *DispatchService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	env := &testEnv{
		clock:       newFixedClock(),
		drivers:     memory.NewDriverRepository(),
		passengers:  memory.NewPassengerRepository(),
		trips:       memory.NewTripRepository(),
		invoices:    memory.NewInvoiceRepository(),
		publisher:   &recordingPublisher{},
		subscribers: &recordingSubscribers{},
	}

	env.directory = NewDriverDirectory(env.drivers, nil, logger)
	env.directory.now = env.clock.Now
	env.passengerSvc = NewPassengerService(env.passengers)
	env.passengerSvc.now = env.clock.Now
	env.notifications = NewNotificationService(env.publisher, env.subscribers, logger)
	env.invoiceSvc = NewInvoiceService(env.invoices, env.trips, nil, env.notifications, logger)
	env.invoiceSvc.now = env.clock.Now
	env.tripSvc = NewTripService(env.trips, env.invoiceSvc, FlatFare{Amount: DefaultFlatFare}, env.notifications, logger)
	env.tripSvc.now = env.clock.Now
	env.dispatch = NewDispatchService(env.passengers, env.directory, env.tripSvc, nil, DispatchConfig{}, logger)
	return env
}

func (e *testEnv) addPassenger(t *testing.T, id string, loc domain.Location) {
	t.Helper()
	if _, err := e.passengerSvc.Save(context.Background(), &domain.Passenger{ID: id, Name: "P " + id, Phone: "555", Location: loc}); err != nil {
		t.Fatalf("add passenger: %v", err)
	}
}

func (e *testEnv) addDriver(t *testing.T, id string, loc domain.Location, available bool) {
	t.Helper()
	d := &domain.Driver{ID: id, Name: "D " + id, Email: id + "@taxi24.test", Phone: "555", Location: loc, Available: available}
	if _, err := e.directory.Save(context.Background(), d); err != nil {
		t.Fatalf("add driver: %v", err)
	}
}
