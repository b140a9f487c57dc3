// Package events publishes trip lifecycle events to a message broker.
package events

import (
	"context"
	"time"
)

// Type identifies a lifecycle event. It doubles as the routing key.
type Type string

const (
	TripRequested Type = "trip.requested"
	TripStarted   Type = "trip.started"
	TripCancelled Type = "trip.cancelled"
	TripCompleted Type = "trip.completed"
	InvoiceIssued Type = "invoice.issued"
)

// Event is the broker-facing envelope for a lifecycle change.
type Event struct {
	ID          string         `json:"id"`
	Type        Type           `json:"type"`
	TripID      string         `json:"trip_id"`
	PassengerID string         `json:"passenger_id"`
	DriverID    string         `json:"driver_id,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Data        map[string]any `json:"data,omitempty"`
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
