package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taxi24/internal/domain"
	"taxi24/internal/observability"
	"taxi24/internal/redis"
	"taxi24/internal/repository"
)

// DefaultNearbyLimit caps proximity results when the caller gives no limit.
const DefaultNearbyLimit = 3

// DriverDirectory owns driver records and answers proximity queries.
type DriverDirectory struct {
	driverRepo    repository.DriverRepository
	locationStore redis.LocationStoreInterface // nil when Redis is disabled
	logger        *zap.Logger
	now           func() time.Time
}

// NewDriverDirectory creates a new DriverDirectory.
// locationStore may be nil, in which case proximity queries scan available drivers.
func NewDriverDirectory(
	driverRepo repository.DriverRepository,
	locationStore redis.LocationStoreInterface,
	logger *zap.Logger,
) *DriverDirectory {
	return &DriverDirectory{
		driverRepo:    driverRepo,
		locationStore: locationStore,
		logger:        logger,
		now:           time.Now,
	}
}

// ListAll returns every driver in insertion order.
func (s *DriverDirectory) ListAll(ctx context.Context) ([]*domain.Driver, error) {
	return s.driverRepo.GetAll(ctx)
}

// ListAvailable returns drivers accepting trips, in insertion order.
func (s *DriverDirectory) ListAvailable(ctx context.Context) ([]*domain.Driver, error) {
	return s.driverRepo.GetAvailable(ctx)
}

// Get returns the driver with id. A missing driver is reported as false, not an error.
func (s *DriverDirectory) Get(ctx context.Context, id string) (*domain.Driver, bool, error) {
	if id == "" {
		return nil, false, ErrInvalidDriverID
	}
	driver, err := s.driverRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return driver, true, nil
}

// FindNearby returns available drivers within radiusKm of point, nearest first.
// Equal distances keep insertion order. limit <= 0 means DefaultNearbyLimit.
func (s *DriverDirectory) FindNearby(ctx context.Context, point domain.Location, radiusKm float64, limit int) ([]domain.NearbyDriver, error) {
	if math.IsNaN(radiusKm) || radiusKm < 0 {
		return nil, ErrInvalidRadius
	}
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}

	candidates, source, err := s.candidates(ctx, point, radiusKm)
	if err != nil {
		return nil, err
	}

	nearby := make([]domain.NearbyDriver, 0, len(candidates))
	for _, d := range candidates {
		if !d.Available {
			continue
		}
		dist := d.Location.DistanceTo(point)
		if dist > radiusKm {
			continue
		}
		nearby = append(nearby, domain.NearbyDriver{Driver: d, DistanceKm: dist})
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}

	observability.NearbyQueriesTotal.WithLabelValues(source).Inc()
	observability.NearbyResults.Observe(float64(len(nearby)))
	return nearby, nil
}

// candidates returns drivers that may be within radiusKm, in insertion order.
func (s *DriverDirectory) candidates(ctx context.Context, point domain.Location, radiusKm float64) ([]*domain.Driver, string, error) {
	if s.locationStore != nil {
		locs, err := s.locationStore.FindNearbyDrivers(ctx, point.Lat(), point.Lng(), radiusKm)
		if err == nil {
			ids := make([]string, len(locs))
			for i, l := range locs {
				ids[i] = l.DriverID
			}
			drivers, err := s.driverRepo.GetByIDs(ctx, ids)
			if err != nil {
				return nil, "", err
			}
			return drivers, "geo_index", nil
		}
		s.logger.Warn("geo index lookup failed, falling back to scan", zap.Error(err))
	}

	drivers, err := s.driverRepo.GetAvailable(ctx)
	if err != nil {
		return nil, "", err
	}
	return drivers, "scan", nil
}

// Save registers or replaces a driver. A blank ID is assigned a new one.
func (s *DriverDirectory) Save(ctx context.Context, driver *domain.Driver) (*domain.Driver, error) {
	driver.Name = strings.TrimSpace(driver.Name)
	driver.Email = strings.TrimSpace(driver.Email)
	driver.Phone = strings.TrimSpace(driver.Phone)
	if err := requireFields(map[string]string{
		"name":  driver.Name,
		"email": driver.Email,
		"phone": driver.Phone,
	}); err != nil {
		return nil, err
	}

	now := s.now()
	if driver.ID == "" {
		driver.ID = uuid.New().String()
		driver.CreatedAt = now
	} else if existing, err := s.driverRepo.GetByID(ctx, driver.ID); err == nil {
		driver.CreatedAt = existing.CreatedAt
	} else if errors.Is(err, repository.ErrNotFound) {
		driver.CreatedAt = now
	} else {
		return nil, err
	}
	driver.UpdatedAt = now

	owner, err := s.driverRepo.GetByEmail(ctx, driver.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if owner != nil && owner.ID != driver.ID {
		return nil, ErrEmailTaken
	}

	if err := s.driverRepo.Save(ctx, driver); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.syncIndex(ctx, driver)
	return driver, nil
}

// UpdateLocation replaces a driver's location.
func (s *DriverDirectory) UpdateLocation(ctx context.Context, id string, loc domain.Location) (*domain.Driver, error) {
	if id == "" {
		return nil, ErrInvalidDriverID
	}
	if err := s.driverRepo.UpdateLocation(ctx, id, loc); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}
	return s.reload(ctx, id)
}

// SetAvailability marks a driver as accepting trips or not.
func (s *DriverDirectory) SetAvailability(ctx context.Context, id string, available bool) (*domain.Driver, error) {
	if id == "" {
		return nil, ErrInvalidDriverID
	}
	if err := s.driverRepo.UpdateAvailability(ctx, id, available); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}
	return s.reload(ctx, id)
}

// RebuildIndex re-adds every available driver to the geo index.
func (s *DriverDirectory) RebuildIndex(ctx context.Context) (int, error) {
	if s.locationStore == nil {
		return 0, nil
	}
	drivers, err := s.driverRepo.GetAvailable(ctx)
	if err != nil {
		return 0, err
	}
	for _, d := range drivers {
		if err := s.locationStore.UpdateLocation(ctx, d.ID, d.Location.Lat(), d.Location.Lng()); err != nil {
			return 0, fmt.Errorf("index driver %s: %w", d.ID, err)
		}
	}
	return len(drivers), nil
}

func (s *DriverDirectory) reload(ctx context.Context, id string) (*domain.Driver, error) {
	driver, err := s.driverRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}
	s.syncIndex(ctx, driver)
	return driver, nil
}

// syncIndex keeps the geo index in step with the stored driver.
// The index only holds available drivers.
func (s *DriverDirectory) syncIndex(ctx context.Context, driver *domain.Driver) {
	if s.locationStore == nil {
		return
	}
	var err error
	if driver.Available {
		err = s.locationStore.UpdateLocation(ctx, driver.ID, driver.Location.Lat(), driver.Location.Lng())
	} else {
		err = s.locationStore.RemoveLocation(ctx, driver.ID)
	}
	if err != nil {
		s.logger.Error("failed to sync driver geo index", zap.String("driver_id", driver.ID), zap.Error(err))
	}
}

// requireFields fails with ErrMissingRequiredField naming every blank field.
func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrMissingRequiredField, strings.Join(missing, ", "))
}
