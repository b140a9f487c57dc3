package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for the driver geo index.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error
	FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]DriverLocation, error)
	RemoveLocation(ctx context.Context, driverID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// InvoiceCacheInterface defines the interface for invoice caching.
type InvoiceCacheInterface interface {
	GetInvoice(ctx context.Context, invoiceID string) (*CachedInvoice, error)
	SetInvoice(ctx context.Context, invoice *CachedInvoice) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ InvoiceCacheInterface  = (*CacheStore)(nil)
)
