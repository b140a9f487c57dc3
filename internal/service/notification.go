package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taxi24/internal/domain"
	"taxi24/internal/events"
	"taxi24/internal/observability"
)

// Subscribers pushes messages to live connections keyed by passenger or driver ID.
type Subscribers interface {
	Send(subscriberID string, v any) int
}

// NotificationService fans lifecycle events out to the broker and to live subscribers.
// Delivery is best effort: failures are logged and never fail the caller.
type NotificationService struct {
	publisher   events.Publisher
	subscribers Subscribers // Optional
	logger      *zap.Logger
	now         func() time.Time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(publisher events.Publisher, subscribers Subscribers, logger *zap.Logger) *NotificationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &NotificationService{
		publisher:   publisher,
		subscribers: subscribers,
		logger:      logger,
		now:         time.Now,
	}
}

// NotifyTripRequested announces a new PENDING trip.
func (s *NotificationService) NotifyTripRequested(ctx context.Context, trip *domain.Trip) {
	s.send(ctx, tripEvent(events.TripRequested, trip, map[string]any{
		"origin":      coordinates(trip.Origin),
		"destination": coordinates(trip.Destination),
	}))
}

// NotifyTripStarted announces that a trip is IN_PROGRESS.
func (s *NotificationService) NotifyTripStarted(ctx context.Context, trip *domain.Trip) {
	s.send(ctx, tripEvent(events.TripStarted, trip, nil))
}

// NotifyTripCancelled announces a CANCELLED trip.
func (s *NotificationService) NotifyTripCancelled(ctx context.Context, trip *domain.Trip) {
	s.send(ctx, tripEvent(events.TripCancelled, trip, nil))
}

// NotifyTripCompleted announces a COMPLETED trip and its fare.
func (s *NotificationService) NotifyTripCompleted(ctx context.Context, trip *domain.Trip) {
	data := map[string]any{}
	if trip.Fare != nil {
		data["fare"] = *trip.Fare
	}
	if trip.EndedAt != nil {
		data["ended_at"] = *trip.EndedAt
	}
	s.send(ctx, tripEvent(events.TripCompleted, trip, data))
}

// NotifyInvoiceIssued announces a new invoice.
func (s *NotificationService) NotifyInvoiceIssued(ctx context.Context, invoice *domain.Invoice) {
	s.send(ctx, events.Event{
		Type:        events.InvoiceIssued,
		TripID:      invoice.TripID,
		PassengerID: invoice.PassengerID,
		DriverID:    invoice.DriverID,
		Data: map[string]any{
			"invoice_id": invoice.ID,
			"total":      invoice.Total,
		},
	})
}

func (s *NotificationService) send(ctx context.Context, event events.Event) {
	event.ID = uuid.New().String()
	event.OccurredAt = s.now()

	if err := s.publisher.Publish(ctx, event); err != nil {
		observability.EventsPublishFailures.WithLabelValues(string(event.Type)).Inc()
		s.logger.Warn("failed to publish event",
			zap.String("type", string(event.Type)),
			zap.String("trip_id", event.TripID),
			zap.Error(err),
		)
	}

	if s.subscribers != nil {
		s.subscribers.Send(event.PassengerID, event)
		if event.DriverID != "" {
			s.subscribers.Send(event.DriverID, event)
		}
	}
}

func tripEvent(t events.Type, trip *domain.Trip, data map[string]any) events.Event {
	return events.Event{
		Type:        t,
		TripID:      trip.ID,
		PassengerID: trip.PassengerID,
		DriverID:    trip.DriverID,
		Data:        data,
	}
}

func coordinates(l domain.Location) map[string]float64 {
	return map[string]float64{"lat": l.Lat(), "lng": l.Lng()}
}
