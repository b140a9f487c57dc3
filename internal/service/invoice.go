package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taxi24/internal/domain"
	"taxi24/internal/observability"
	"taxi24/internal/redis"
	"taxi24/internal/repository"
)

// BuildInvoice derives the invoice for a completed trip. It does not persist anything,
// so calling it twice yields two invoices; InvoiceService.Issue deduplicates by trip.
func BuildInvoice(trip *domain.Trip, issuedAt time.Time) (*domain.Invoice, error) {
	if trip == nil {
		return nil, fmt.Errorf("%w: no trip to invoice", domain.ErrIllegalState)
	}
	if trip.Status != domain.TripStatusCompleted || trip.Fare == nil || trip.EndedAt == nil {
		return nil, fmt.Errorf("%w: trip %s is %s and cannot be invoiced", domain.ErrIllegalState, trip.ID, trip.Status)
	}

	fare := *trip.Fare
	tax := roundCents(fare * domain.TaxRate)
	subtotal := roundCents(fare - tax)
	minutes := int64(math.Round(float64(trip.EndedAt.Sub(trip.StartedAt).Milliseconds()) / 60000))

	return &domain.Invoice{
		ID:          newInvoiceID(issuedAt),
		TripID:      trip.ID,
		PassengerID: trip.PassengerID,
		DriverID:    trip.DriverID,
		Fare:        fare,
		IssuedAt:    issuedAt,
		TripDate:    trip.StartedAt,
		Origin:      trip.Origin,
		Destination: trip.Destination,
		LineItems: []string{
			fmt.Sprintf("Trip from %s to %s", trip.Origin, trip.Destination),
			fmt.Sprintf("Duration: %d minutes", minutes),
			fmt.Sprintf("Subtotal: $%.2f", subtotal),
			fmt.Sprintf("Tax (%d%%): $%.2f", int(domain.TaxRate*100), tax),
		},
		Tax:      tax,
		Subtotal: subtotal,
		Total:    roundCents(fare),
	}, nil
}

func newInvoiceID(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("INV-%d-%s", at.UnixMilli(), suffix)
}

// InvoiceService issues and looks up invoices.
type InvoiceService struct {
	invoiceRepo         repository.InvoiceRepository
	tripRepo            repository.TripRepository
	cacheStore          redis.InvoiceCacheInterface // Optional
	notificationService *NotificationService
	logger              *zap.Logger
	now                 func() time.Time
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	tripRepo repository.TripRepository,
	cacheStore redis.InvoiceCacheInterface,
	notificationService *NotificationService,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:         invoiceRepo,
		tripRepo:            tripRepo,
		cacheStore:          cacheStore,
		notificationService: notificationService,
		logger:              logger,
		now:                 time.Now,
	}
}

// Issue returns the invoice for trip, creating it on first call.
// Concurrent calls for the same trip all return the single stored invoice.
func (s *InvoiceService) Issue(ctx context.Context, trip *domain.Trip) (*domain.Invoice, error) {
	// Check for existing invoice (idempotency by trip).
	existing, err := s.invoiceRepo.GetByTripID(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	invoice, err := BuildInvoice(trip, s.now())
	if err != nil {
		s.logger.Error("invoice requested for trip that cannot be invoiced",
			zap.String("trip_id", trip.ID),
			zap.String("status", string(trip.Status)),
			zap.Error(err),
		)
		return nil, err
	}

	stored, created, err := s.invoiceRepo.CreateIfAbsent(ctx, invoice)
	if err != nil {
		return nil, err
	}

	if created {
		observability.InvoicesIssuedTotal.Inc()
		s.logger.Info("invoice issued",
			zap.String("invoice_id", stored.ID),
			zap.String("trip_id", stored.TripID),
			zap.Float64("total", stored.Total),
		)
		if s.notificationService != nil {
			s.notificationService.NotifyInvoiceIssued(ctx, stored)
		}
	}
	s.cache(ctx, stored)
	return stored, nil
}

// Get returns an invoice by ID.
func (s *InvoiceService) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetInvoice(ctx, id)
		if err != nil {
			s.logger.Warn("invoice cache read failed", zap.String("invoice_id", id), zap.Error(err))
		} else if cached != nil {
			if inv, err := fromCachedInvoice(cached); err == nil {
				return inv, nil
			}
		}
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	s.cache(ctx, invoice)
	return invoice, nil
}

// ByTrip returns the invoice of a trip. A completed trip that was never invoiced
// is invoiced now; any other trip without an invoice is ErrInvoiceNotFound.
func (s *InvoiceService) ByTrip(ctx context.Context, tripID string) (*domain.Invoice, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	invoice, err := s.invoiceRepo.GetByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if invoice != nil {
		return invoice, nil
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if trip.Status != domain.TripStatusCompleted {
		return nil, ErrInvoiceNotFound
	}
	s.logger.Warn("completed trip had no invoice, issuing now", zap.String("trip_id", tripID))
	return s.Issue(ctx, trip)
}

// ByPassenger returns a passenger's invoices, most recent first.
func (s *InvoiceService) ByPassenger(ctx context.Context, passengerID string) ([]*domain.Invoice, error) {
	if passengerID == "" {
		return nil, ErrInvalidPassengerID
	}
	return s.invoiceRepo.GetByPassengerID(ctx, passengerID)
}

// ByDriver returns a driver's invoices, most recent first.
func (s *InvoiceService) ByDriver(ctx context.Context, driverID string) ([]*domain.Invoice, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.invoiceRepo.GetByDriverID(ctx, driverID)
}

// List returns all invoices, most recent first.
func (s *InvoiceService) List(ctx context.Context) ([]*domain.Invoice, error) {
	return s.invoiceRepo.GetAll(ctx)
}

func (s *InvoiceService) cache(ctx context.Context, inv *domain.Invoice) {
	if s.cacheStore == nil {
		return
	}
	if err := s.cacheStore.SetInvoice(ctx, toCachedInvoice(inv)); err != nil {
		s.logger.Warn("invoice cache write failed", zap.String("invoice_id", inv.ID), zap.Error(err))
	}
}

func toCachedInvoice(inv *domain.Invoice) *redis.CachedInvoice {
	return &redis.CachedInvoice{
		ID:             inv.ID,
		TripID:         inv.TripID,
		PassengerID:    inv.PassengerID,
		DriverID:       inv.DriverID,
		Fare:           inv.Fare,
		IssuedAt:       inv.IssuedAt,
		TripDate:       inv.TripDate,
		OriginLat:      inv.Origin.Lat(),
		OriginLng:      inv.Origin.Lng(),
		DestinationLat: inv.Destination.Lat(),
		DestinationLng: inv.Destination.Lng(),
		LineItems:      inv.LineItems,
		Tax:            inv.Tax,
		Subtotal:       inv.Subtotal,
		Total:          inv.Total,
	}
}

func fromCachedInvoice(c *redis.CachedInvoice) (*domain.Invoice, error) {
	origin, err := domain.NewLocation(c.OriginLat, c.OriginLng)
	if err != nil {
		return nil, err
	}
	destination, err := domain.NewLocation(c.DestinationLat, c.DestinationLng)
	if err != nil {
		return nil, err
	}
	return &domain.Invoice{
		ID:          c.ID,
		TripID:      c.TripID,
		PassengerID: c.PassengerID,
		DriverID:    c.DriverID,
		Fare:        c.Fare,
		IssuedAt:    c.IssuedAt,
		TripDate:    c.TripDate,
		Origin:      origin,
		Destination: destination,
		LineItems:   c.LineItems,
		Tax:         c.Tax,
		Subtotal:    c.Subtotal,
		Total:       c.Total,
	}, nil
}
