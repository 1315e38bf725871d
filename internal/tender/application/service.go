package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"energy-broker/internal/auth"
	authority "energy-broker/internal/authority/domain"
	"energy-broker/internal/observability/metrics"
	"energy-broker/internal/pricing"
	"energy-broker/internal/tender/adapters/jellyfish"
	"energy-broker/internal/tender/application/events"
	tender "energy-broker/internal/tender/domain"
)

// ErrManagerRequired blocks uplift edits by non-managers.
var ErrManagerRequired = errors.New("tender: uplift edits require the manager role")

// RequestRepository persists price requests.
type RequestRepository interface {
	CreateWithLines(ctx context.Context, req *tender.PriceRequest) error
	UpdateState(ctx context.Context, id string, state tender.RequestState) error
	Get(ctx context.Context, id string) (*tender.PriceRequest, error)
}

// ResponseRepository persists price responses.
type ResponseRepository interface {
	CreateWithLines(ctx context.Context, resp *tender.PriceResponse) error
	UpdateLine(ctx context.Context, responseID string, line tender.ResponseLine) error
	MarkBestOffer(ctx context.Context, requestID, responseID string) error
	Get(ctx context.Context, id string) (*tender.PriceResponse, error)
	ListByRequest(ctx context.Context, requestID string) ([]*tender.PriceResponse, error)
}

// LOAReader resolves Letters of Authority.
type LOAReader interface {
	Get(ctx context.Context, id string) (*authority.LOA, error)
}

// QuoteFetcher fetches offers from the pricing provider.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, req jellyfish.QuoteRequest) ([]jellyfish.Offer, error)
}

// EventPublisher publishes tender events.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service drives the tender workflow: building requests, sending them under
// an LOA, importing provider quotes and finalizing the comparison.
type Service struct {
	requests         RequestRepository
	responses        ResponseRepository
	loas             LOAReader
	quotes           QuoteFetcher
	bus              EventPublisher
	policy           pricing.UpliftPolicy
	defaultSuppliers []string
	logger           *log.Logger
	clock            Clock
}

// ServiceOption customizes the tender service.
type ServiceOption func(*Service)

// WithQuoteFetcher assigns the pricing provider client.
func WithQuoteFetcher(quotes QuoteFetcher) ServiceOption {
	return func(s *Service) { s.quotes = quotes }
}

// WithBus assigns an event publisher.
func WithBus(bus EventPublisher) ServiceOption {
	return func(s *Service) { s.bus = bus }
}

// WithUpliftPolicy assigns the uplift cap.
func WithUpliftPolicy(policy pricing.UpliftPolicy) ServiceOption {
	return func(s *Service) { s.policy = policy }
}

// WithDefaultSuppliers assigns the suppliers targeted when a tender names none.
func WithDefaultSuppliers(suppliers []string) ServiceOption {
	return func(s *Service) { s.defaultSuppliers = suppliers }
}

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) { s.clock = clock }
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs a tender service.
func NewService(requests RequestRepository, responses ResponseRepository, loas LOAReader, opts ...ServiceOption) (*Service, error) {
	if requests == nil || responses == nil {
		return nil, errors.New("tender: nil repository")
	}
	if loas == nil {
		return nil, errors.New("tender: nil loa reader")
	}
	service := &Service{
		requests:  requests,
		responses: responses,
		loas:      loas,
		clock:     systemClock{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// LineInput describes one meter of a new tender.
type LineInput struct {
	Identifier      string
	MeterType       tender.MeterType
	AnnualUsageKWh  float64
	CurrentSupplier string
	ContractEndDate time.Time
	SupplyAddress   string
}

// CreateRequestInput describes a new tender.
type CreateRequestInput struct {
	Name          string
	LOAID         string
	CustomerID    string
	CustomerEmail string
	LeadID        string
	Suppliers     []string
	Lines         []LineInput
}

// CreateRequest validates all meter identifiers and stores a draft tender.
func (s *Service) CreateRequest(ctx context.Context, in CreateRequestInput) (*tender.PriceRequest, error) {
	if s == nil {
		return nil, errors.New("tender: nil service")
	}
	if len(in.Lines) == 0 {
		return nil, errors.New("tender: at least one meter line is required")
	}
	now := s.clock.Now().UTC()
	suppliers := in.Suppliers
	if len(suppliers) == 0 {
		suppliers = append([]string(nil), s.defaultSuppliers...)
	}
	req := &tender.PriceRequest{
		ID:            fmt.Sprintf("pr-%d", now.UnixNano()),
		Name:          in.Name,
		LOAID:         in.LOAID,
		CustomerID:    in.CustomerID,
		CustomerEmail: in.CustomerEmail,
		LeadID:        in.LeadID,
		Suppliers:     suppliers,
		State:         tender.RequestDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i, lineIn := range in.Lines {
		line, err := tender.NewRequestLine(
			fmt.Sprintf("%s-l%d", req.ID, i+1),
			lineIn.Identifier, lineIn.MeterType, lineIn.AnnualUsageKWh, lineIn.SupplyAddress,
		)
		if err != nil {
			return nil, err
		}
		line.CurrentSupplier = lineIn.CurrentSupplier
		line.ContractEndDate = lineIn.ContractEndDate
		req.Lines = append(req.Lines, line)
	}
	if err := s.requests.CreateWithLines(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// SendRequest marks a tender as sent. A valid, unexpired LOA and at least one
// supplier are required.
func (s *Service) SendRequest(ctx context.Context, requestID string) error {
	if s == nil {
		return errors.New("tender: nil service")
	}
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if len(req.Suppliers) == 0 {
		return tender.ErrNoSuppliers
	}
	loa, err := s.loas.Get(ctx, req.LOAID)
	if err != nil {
		return err
	}
	if !loa.UsableFor(s.clock.Now()) {
		return authority.ErrNotUsable
	}
	req.MarkSent()
	if err := s.requests.UpdateState(ctx, req.ID, req.State); err != nil {
		return err
	}
	s.publish(ctx, events.RequestSent{
		RequestID:  req.ID,
		LOAID:      req.LOAID,
		Suppliers:  req.Suppliers,
		OccurredAt: s.clock.Now().UTC(),
	})
	return nil
}

// ImportQuotes fetches offers from the pricing provider and maps them onto
// the tender's meters. A response is created even when no offer matched.
func (s *Service) ImportQuotes(ctx context.Context, requestID, supplierID string) (*tender.PriceResponse, error) {
	if s == nil {
		return nil, errors.New("tender: nil service")
	}
	if s.quotes == nil {
		return nil, errors.New("tender: no quote fetcher configured")
	}
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	quoteReq := jellyfish.QuoteRequest{Reference: req.ID}
	for _, line := range req.Lines {
		quoteReq.Meters = append(quoteReq.Meters, jellyfish.QuoteMeter{
			Identifier:     line.Meter.Core,
			MeterType:      string(line.MeterType),
			AnnualUsageKWh: line.AnnualUsageKWh,
		})
	}

	started := s.clock.Now()
	offers, err := s.quotes.FetchQuotes(ctx, quoteReq)
	if err != nil {
		metrics.ObserveQuoteFetch(metrics.ResultError, s.clock.Now().Sub(started))
		return nil, err
	}
	metrics.ObserveQuoteFetch(metrics.ResultSuccess, s.clock.Now().Sub(started))

	lines, skipped := jellyfish.MapOffers(req, offers)
	metrics.AddOffersMapped(len(lines), skipped)
	if skipped > 0 && s.logger != nil {
		s.logger.Printf("tender %s: %d offers skipped during mapping", req.ID, skipped)
	}

	now := s.clock.Now().UTC()
	resp := &tender.PriceResponse{
		ID:         fmt.Sprintf("resp-%d", now.UnixNano()),
		Name:       req.Name,
		RequestID:  req.ID,
		SupplierID: supplierID,
		LeadID:     req.LeadID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for i := range lines {
		lines[i].ID = fmt.Sprintf("%s-l%d", resp.ID, i+1)
	}
	resp.Lines = lines
	if err := s.responses.CreateWithLines(ctx, resp); err != nil {
		return nil, err
	}
	s.publish(ctx, events.QuotesImported{
		RequestID:  req.ID,
		ResponseID: resp.ID,
		SupplierID: supplierID,
		Mapped:     len(lines),
		Skipped:    skipped,
		OccurredAt: now,
	})
	return resp, nil
}

// SetLineUplift applies a broker uplift to one offer line. Manager only.
func (s *Service) SetLineUplift(ctx context.Context, responseID, lineID string, upliftPPerKWh float64) error {
	if s == nil {
		return errors.New("tender: nil service")
	}
	if !auth.RoleAtLeast(auth.RoleFromContext(ctx), auth.RoleManager) {
		return ErrManagerRequired
	}
	resp, err := s.responses.Get(ctx, responseID)
	if err != nil {
		return err
	}
	for i := range resp.Lines {
		if resp.Lines[i].ID != lineID {
			continue
		}
		if err := resp.Lines[i].SetUplift(upliftPPerKWh, s.policy); err != nil {
			return err
		}
		return s.responses.UpdateLine(ctx, resp.ID, resp.Lines[i])
	}
	return tender.ErrNotFound
}

// FinalizeComparison flags the chosen response as the best offer. The tender
// must carry a customer email to send the comparison to.
func (s *Service) FinalizeComparison(ctx context.Context, requestID, responseID string) error {
	if s == nil {
		return errors.New("tender: nil service")
	}
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.CustomerEmail == "" {
		return tender.ErrCustomerEmailRequired
	}
	if err := s.responses.MarkBestOffer(ctx, requestID, responseID); err != nil {
		return err
	}
	s.publish(ctx, events.ComparisonFinalized{
		RequestID:     requestID,
		ResponseID:    responseID,
		CustomerEmail: req.CustomerEmail,
		OccurredAt:    s.clock.Now().UTC(),
	})
	return nil
}

// ResponsesForRequest lists all responses to a tender.
func (s *Service) ResponsesForRequest(ctx context.Context, requestID string) ([]*tender.PriceResponse, error) {
	if s == nil {
		return nil, errors.New("tender: nil service")
	}
	return s.responses.ListByRequest(ctx, requestID)
}

// Request loads a tender.
func (s *Service) Request(ctx context.Context, requestID string) (*tender.PriceRequest, error) {
	if s == nil {
		return nil, errors.New("tender: nil service")
	}
	return s.requests.Get(ctx, requestID)
}

func (s *Service) publish(ctx context.Context, event any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.Printf("tender: publish %T: %v", event, err)
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
