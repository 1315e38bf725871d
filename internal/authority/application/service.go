package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"energy-broker/internal/authority/application/events"
	authority "energy-broker/internal/authority/domain"
	"energy-broker/internal/observability/metrics"
)

// LOARepository persists Letters of Authority.
type LOARepository interface {
	Create(ctx context.Context, loa *authority.LOA) error
	Update(ctx context.Context, loa *authority.LOA) error
	Get(ctx context.Context, id string) (*authority.LOA, error)
	ListDueForExpiry(ctx context.Context, today time.Time) ([]*authority.LOA, error)
}

// EventPublisher publishes LOA events.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service manages the Letter of Authority workflow: the authorization a
// customer grants the broker before any price request may go out.
type Service struct {
	loas   LOARepository
	bus    EventPublisher
	logger *log.Logger
	clock  Clock
}

// ServiceOption customizes the LOA service.
type ServiceOption func(*Service)

// WithBus assigns an event publisher.
func WithBus(bus EventPublisher) ServiceOption {
	return func(s *Service) { s.bus = bus }
}

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) { s.clock = clock }
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs an LOA service.
func NewService(loas LOARepository, opts ...ServiceOption) (*Service, error) {
	if loas == nil {
		return nil, errors.New("authority: nil repository")
	}
	service := &Service{
		loas:  loas,
		clock: systemClock{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// CreateInput describes a new Letter of Authority.
type CreateInput struct {
	Name          string
	CustomerID    string
	CustomerEmail string
	LeadID        string
	IssueDate     time.Time
}

// Create drafts an LOA. The expiry date is derived from the issue date; an
// unset issue date defaults to today.
func (s *Service) Create(ctx context.Context, in CreateInput) (*authority.LOA, error) {
	if s == nil {
		return nil, errors.New("authority: nil service")
	}
	now := s.clock.Now().UTC()
	issue := in.IssueDate
	if issue.IsZero() {
		issue = now
	}
	loa := authority.NewLOA(fmt.Sprintf("loa-%d", now.UnixNano()), in.CustomerID, issue)
	loa.Name = in.Name
	loa.CustomerEmail = in.CustomerEmail
	loa.LeadID = in.LeadID
	loa.CreatedAt = now
	loa.UpdatedAt = now
	if err := s.loas.Create(ctx, loa); err != nil {
		return nil, err
	}
	s.publish(ctx, events.LOACreated{
		LOAID:      loa.ID,
		CustomerID: loa.CustomerID,
		ExpiryDate: loa.ExpiryDate,
		OccurredAt: now,
	})
	return loa, nil
}

// MarkSent records that the LOA went out to the customer for signing.
func (s *Service) MarkSent(ctx context.Context, loaID string) (*authority.LOA, error) {
	return s.mutate(ctx, loaID, func(loa *authority.LOA) error {
		loa.MarkSent()
		return nil
	})
}

// MarkSigned records the customer's signature on the LOA.
func (s *Service) MarkSigned(ctx context.Context, loaID string) (*authority.LOA, error) {
	return s.mutate(ctx, loaID, func(loa *authority.LOA) error {
		loa.MarkSigned()
		return nil
	})
}

// Validate promotes a signed LOA to valid, making it usable for price
// requests. An LOA past its expiry date cannot be validated.
func (s *Service) Validate(ctx context.Context, loaID string) (*authority.LOA, error) {
	loa, err := s.mutate(ctx, loaID, func(loa *authority.LOA) error {
		return loa.Validate(s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.LOAValidated{
		LOAID:      loa.ID,
		CustomerID: loa.CustomerID,
		OccurredAt: s.clock.Now().UTC(),
	})
	return loa, nil
}

// Get loads an LOA.
func (s *Service) Get(ctx context.Context, loaID string) (*authority.LOA, error) {
	if s == nil {
		return nil, errors.New("authority: nil service")
	}
	return s.loas.Get(ctx, loaID)
}

// ExpirySweep flips every overdue LOA to expired. Returns how many changed.
// Re-running the sweep on the same day is a no-op.
func (s *Service) ExpirySweep(ctx context.Context, today time.Time) (int, error) {
	if s == nil {
		return 0, errors.New("authority: nil service")
	}
	started := s.clock.Now()
	due, err := s.loas.ListDueForExpiry(ctx, today)
	if err != nil {
		metrics.ObserveExpirySweep(metrics.ResultError, s.clock.Now().Sub(started))
		return 0, err
	}
	expired := 0
	for _, loa := range due {
		if !loa.ExpireIfDue(today) {
			continue
		}
		loa.UpdatedAt = s.clock.Now().UTC()
		if err := s.loas.Update(ctx, loa); err != nil {
			metrics.ObserveExpirySweep(metrics.ResultError, s.clock.Now().Sub(started))
			return expired, err
		}
		expired++
		s.publish(ctx, events.LOAExpired{
			LOAID:      loa.ID,
			CustomerID: loa.CustomerID,
			ExpiryDate: loa.ExpiryDate,
			OccurredAt: loa.UpdatedAt,
		})
	}
	metrics.ObserveExpirySweep(metrics.ResultSuccess, s.clock.Now().Sub(started))
	return expired, nil
}

func (s *Service) mutate(ctx context.Context, loaID string, apply func(*authority.LOA) error) (*authority.LOA, error) {
	if s == nil {
		return nil, errors.New("authority: nil service")
	}
	loa, err := s.loas.Get(ctx, loaID)
	if err != nil {
		return nil, err
	}
	if err := apply(loa); err != nil {
		return nil, err
	}
	loa.UpdatedAt = s.clock.Now().UTC()
	if err := s.loas.Update(ctx, loa); err != nil {
		return nil, err
	}
	return loa, nil
}

func (s *Service) publish(ctx context.Context, event any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.Printf("authority: publish %T: %v", event, err)
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
