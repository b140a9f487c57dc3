package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// InvoiceCacheTTL bounds how long an invoice stays cached. Invoices never change.
const InvoiceCacheTTL = 10 * time.Minute

const invoiceCachePrefix = "cache:invoice:"

// CachedInvoice represents a cached invoice entity.
type CachedInvoice struct {
	ID             string    `json:"id"`
	TripID         string    `json:"trip_id"`
	PassengerID    string    `json:"passenger_id"`
	DriverID       string    `json:"driver_id"`
	Fare           float64   `json:"fare"`
	IssuedAt       time.Time `json:"issued_at"`
	TripDate       time.Time `json:"trip_date"`
	OriginLat      float64   `json:"origin_lat"`
	OriginLng      float64   `json:"origin_lng"`
	DestinationLat float64   `json:"destination_lat"`
	DestinationLng float64   `json:"destination_lng"`
	LineItems      []string  `json:"line_items"`
	Tax            float64   `json:"tax"`
	Subtotal       float64   `json:"subtotal"`
	Total          float64   `json:"total"`
}

// GetInvoice retrieves an invoice from cache. A miss returns nil, nil.
func (s *CacheStore) GetInvoice(ctx context.Context, invoiceID string) (*CachedInvoice, error) {
	data, err := s.client.Get(ctx, invoiceCachePrefix+invoiceID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var invoice CachedInvoice
	if err := json.Unmarshal(data, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// SetInvoice stores an invoice in cache.
func (s *CacheStore) SetInvoice(ctx context.Context, invoice *CachedInvoice) error {
	data, err := json.Marshal(invoice)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, invoiceCachePrefix+invoice.ID, data, InvoiceCacheTTL).Err()
}
