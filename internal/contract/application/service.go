package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	commission "energy-broker/internal/commission/domain"
	"energy-broker/internal/contract/application/events"
	contract "energy-broker/internal/contract/domain"
	"energy-broker/internal/observability/metrics"
	"energy-broker/internal/signature"
	tender "energy-broker/internal/tender/domain"
)

// ContractRepository persists contracts.
type ContractRepository interface {
	Create(ctx context.Context, c *contract.Contract) error
	Update(ctx context.Context, c *contract.Contract) error
	Get(ctx context.Context, id string) (*contract.Contract, error)
	ListByStatus(ctx context.Context, status contract.Status) ([]*contract.Contract, error)
	ListForExpirySweep(ctx context.Context) ([]*contract.Contract, error)
	ListPendingSignature(ctx context.Context) ([]*contract.Contract, error)
}

// LedgerRepository persists commission ledger entries.
type LedgerRepository interface {
	Append(ctx context.Context, entry commission.LedgerEntry) error
	ListByContract(ctx context.Context, contractID string) (commission.Ledger, error)
}

// RuleReader resolves commission rules.
type RuleReader interface {
	Get(ctx context.Context, id string) (*commission.Rule, error)
}

// ResponseReader resolves the price response a contract references. The
// reference is weak: a response may be gone when usage is re-read.
type ResponseReader interface {
	Get(ctx context.Context, id string) (*tender.PriceResponse, error)
}

// SignatureClient talks to the e-signature provider.
type SignatureClient interface {
	CreateRequest(ctx context.Context, in signature.CreateRequestInput) (string, error)
	GetStatus(ctx context.Context, requestID string) (signature.RequestStatus, error)
}

// EventPublisher publishes contract events.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service drives the contract lifecycle: creation from a winning response,
// commission recomputation, signature tracking and the expiry sweep.
type Service struct {
	contracts ContractRepository
	ledger    LedgerRepository
	rules     RuleReader
	responses ResponseReader
	signer    SignatureClient
	bus       EventPublisher
	logger    *log.Logger
	clock     Clock
}

// ServiceOption customizes the contract service.
type ServiceOption func(*Service)

// WithSignatureClient assigns the e-signature provider client.
func WithSignatureClient(signer SignatureClient) ServiceOption {
	return func(s *Service) { s.signer = signer }
}

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

// NewService constructs a contract service.
func NewService(contracts ContractRepository, ledger LedgerRepository, rules RuleReader, responses ResponseReader, opts ...ServiceOption) (*Service, error) {
	if contracts == nil || ledger == nil {
		return nil, errors.New("contract: nil repository")
	}
	if rules == nil || responses == nil {
		return nil, errors.New("contract: nil reader")
	}
	service := &Service{
		contracts: contracts,
		ledger:    ledger,
		rules:     rules,
		responses: responses,
		clock:     systemClock{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// CreateInput describes a new contract built from a winning response.
type CreateInput struct {
	Name           string
	CustomerID     string
	SupplierID     string
	LeadID         string
	LOAID          string
	Type           contract.Type
	StartDate      time.Time
	EndDate        time.Time
	ResponseID     string
	RuleID         string
	SignTemplateID string
	SignerID       string
}

// CreateFromResponse creates a draft contract carrying the winning response's
// rates and uplift, and derives the initial commission breakdown.
func (s *Service) CreateFromResponse(ctx context.Context, in CreateInput) (*contract.Contract, error) {
	if s == nil {
		return nil, errors.New("contract: nil service")
	}
	resp, err := s.responses.Get(ctx, in.ResponseID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	c := &contract.Contract{
		ID:             fmt.Sprintf("con-%d", now.UnixNano()),
		Name:           in.Name,
		CustomerID:     in.CustomerID,
		SupplierID:     in.SupplierID,
		LeadID:         in.LeadID,
		LOAID:          in.LOAID,
		Type:           in.Type,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		RequestID:      resp.RequestID,
		ResponseID:     resp.ID,
		Status:         contract.StatusDraft,
		SignStatus:     contract.SignDraft,
		SignTemplateID: in.SignTemplateID,
		SignerID:       in.SignerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if len(resp.Lines) > 0 {
		line := resp.Lines[0]
		c.UnitRatePPerKWh = line.Quote.UnitRatePPerKWh
		c.StandingPerDay = line.Quote.StandingPerDay
		c.UpliftPPerKWh = line.UpliftPPerKWh
	}
	if in.RuleID != "" {
		rule, err := s.rules.Get(ctx, in.RuleID)
		if err != nil {
			return nil, err
		}
		c.Rule = rule
	}
	c.Recompute(resp.TotalUsageKWh(), commission.NewLedger(nil))
	if err := s.contracts.Create(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, events.ContractCreated{
		ContractID: c.ID,
		ResponseID: resp.ID,
		OccurredAt: now,
	})
	return c, nil
}

// AttachRule replaces a contract's commission rule and recomputes the
// breakdown from scratch.
func (s *Service) AttachRule(ctx context.Context, contractID, ruleID string) (*contract.Contract, error) {
	if s == nil {
		return nil, errors.New("contract: nil service")
	}
	c, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	rule, err := s.rules.Get(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	c.AttachRule(rule)
	return c, s.recompute(ctx, c)
}

// RecomputeCommission re-derives the full commission breakdown from the
// current response usage and ledger state.
func (s *Service) RecomputeCommission(ctx context.Context, contractID string) (*contract.Contract, error) {
	if s == nil {
		return nil, errors.New("contract: nil service")
	}
	c, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return c, s.recompute(ctx, c)
}

func (s *Service) recompute(ctx context.Context, c *contract.Contract) error {
	started := s.clock.Now()
	usage, err := s.usageFor(ctx, c)
	if err != nil {
		metrics.ObserveCommissionRecompute(metrics.ResultError, s.clock.Now().Sub(started))
		return err
	}
	ledger, err := s.ledger.ListByContract(ctx, c.ID)
	if err != nil {
		metrics.ObserveCommissionRecompute(metrics.ResultError, s.clock.Now().Sub(started))
		return err
	}
	c.Recompute(usage, ledger)
	c.UpdatedAt = s.clock.Now().UTC()
	if err := s.contracts.Update(ctx, c); err != nil {
		metrics.ObserveCommissionRecompute(metrics.ResultError, s.clock.Now().Sub(started))
		return err
	}
	metrics.ObserveCommissionRecompute(metrics.ResultSuccess, s.clock.Now().Sub(started))
	s.publish(ctx, events.CommissionRecomputed{
		ContractID:  c.ID,
		AmountTotal: c.Commission.AmountTotal,
		ToPay:       c.Commission.ToPay,
		OccurredAt:  s.clock.Now().UTC(),
	})
	return nil
}

// usageFor reads total annual usage through the contract's weak response
// reference. A missing response yields zero usage rather than an error.
func (s *Service) usageFor(ctx context.Context, c *contract.Contract) (float64, error) {
	if c.ResponseID == "" {
		return 0, nil
	}
	resp, err := s.responses.Get(ctx, c.ResponseID)
	if err != nil {
		if errors.Is(err, tender.ErrNotFound) {
			if s.logger != nil {
				s.logger.Printf("contract %s: response %s gone, usage treated as zero", c.ID, c.ResponseID)
			}
			return 0, nil
		}
		return 0, err
	}
	return resp.TotalUsageKWh(), nil
}

// LedgerEntryInput describes a commission payment to record.
type LedgerEntryInput struct {
	Side   commission.Side
	Date   time.Time
	Amount float64
	Note   string
}

// AppendLedgerEntry records a payment and reconciles only the
// ledger-dependent commission fields.
func (s *Service) AppendLedgerEntry(ctx context.Context, contractID string, in LedgerEntryInput) (*contract.Contract, error) {
	if s == nil {
		return nil, errors.New("contract: nil service")
	}
	c, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	entry := commission.LedgerEntry{
		ID:         fmt.Sprintf("led-%d", now.UnixNano()),
		ContractID: c.ID,
		Side:       in.Side,
		Date:       in.Date,
		Amount:     in.Amount,
		Note:       in.Note,
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		return nil, err
	}
	ledger, err := s.ledger.ListByContract(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Reconcile(ledger)
	c.UpdatedAt = now
	if err := s.contracts.Update(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, events.LedgerAppended{
		ContractID: c.ID,
		EntryID:    entry.ID,
		Side:       string(entry.Side),
		Amount:     entry.Amount,
		OccurredAt: now,
	})
	return c, nil
}

// Transition moves a contract's lifecycle state.
func (s *Service) Transition(ctx context.Context, contractID string, to contract.Status) (*contract.Contract, error) {
	if s == nil {
		return nil, errors.New("contract: nil service")
	}
	c, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	from := c.Status
	if err := c.Transition(to); err != nil {
		return nil, err
	}
	if c.Status == from {
		return c, nil
	}
	c.UpdatedAt = s.clock.Now().UTC()
	if err := s.contracts.Update(ctx, c); err != nil {
		return nil, err
	}
	metrics.IncLifecycleTransition(string(to))
	s.publish(ctx, events.StatusChanged{
		ContractID: c.ID,
		From:       string(from),
		To:         string(to),
		OccurredAt: c.UpdatedAt,
	})
	return c, nil
}

// SendForSignature creates a provider signature request for the contract.
// Missing prerequisites make this a no-op, not an error: the contract simply
// stays where it is until a template and signer are set.
func (s *Service) SendForSignature(ctx context.Context, contractID string) (bool, error) {
	if s == nil {
		return false, errors.New("contract: nil service")
	}
	c, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return false, err
	}
	if c.SignStatus == contract.SignPending && c.SignRequestID != "" {
		return false, nil
	}
	if !c.CanSendForSignature() {
		if s.logger != nil {
			s.logger.Printf("contract %s: not sent for signature, template or signer missing", c.ID)
		}
		return false, nil
	}
	if s.signer == nil {
		return false, errors.New("contract: no signature client configured")
	}
	requestID, err := s.signer.CreateRequest(ctx, signature.CreateRequestInput{
		TemplateID: c.SignTemplateID,
		SignerID:   c.Signer(),
		Reference:  c.ID,
	})
	if err != nil {
		return false, err
	}
	c.MarkSignaturePending(requestID)
	c.UpdatedAt = s.clock.Now().UTC()
	if err := s.contracts.Update(ctx, c); err != nil {
		return false, err
	}
	s.publish(ctx, events.SignatureUpdated{
		ContractID: c.ID,
		SignStatus: string(c.SignStatus),
		OccurredAt: c.UpdatedAt,
	})
	return true, nil
}

// SyncSignatures polls the provider for every contract awaiting a signature
// outcome and reconciles the results. A provider error for one contract skips
// it without touching its state; the sync continues with the rest. Returns
// how many contracts changed.
func (s *Service) SyncSignatures(ctx context.Context) (int, error) {
	if s == nil {
		return 0, errors.New("contract: nil service")
	}
	if s.signer == nil {
		return 0, errors.New("contract: no signature client configured")
	}
	pending, err := s.contracts.ListPendingSignature(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, c := range pending {
		status, err := s.signer.GetStatus(ctx, c.SignRequestID)
		if err != nil {
			metrics.IncSignatureSync("error")
			if s.logger != nil {
				s.logger.Printf("contract %s: signature status: %v", c.ID, err)
			}
			continue
		}
		outcome := contract.SignatureOutcome{
			Status:      signature.MapProviderStatus(status.State),
			CompletedAt: status.CompletedAt,
			DocumentID:  status.DocumentID,
		}
		signBefore := c.SignStatus
		statusBefore := c.Status
		docBefore := c.DocumentID
		c.ApplySignature(outcome)
		if c.SignStatus == signBefore && c.Status == statusBefore && c.DocumentID == docBefore {
			metrics.IncSignatureSync("pending")
			continue
		}
		c.UpdatedAt = s.clock.Now().UTC()
		if err := s.contracts.Update(ctx, c); err != nil {
			return changed, err
		}
		changed++
		metrics.IncSignatureSync(string(c.SignStatus))
		s.publish(ctx, events.SignatureUpdated{
			ContractID: c.ID,
			SignStatus: string(c.SignStatus),
			DocumentID: c.DocumentID,
			OccurredAt: c.UpdatedAt,
		})
		if c.Status != statusBefore {
			metrics.IncLifecycleTransition(string(c.Status))
			s.publish(ctx, events.StatusChanged{
				ContractID: c.ID,
				From:       string(statusBefore),
				To:         string(c.Status),
				OccurredAt: c.UpdatedAt,
			})
		}
	}
	return changed, nil
}

// SweepResult summarizes one expiry sweep run.
type SweepResult struct {
	Alerts    int
	Reminders int
}

// ExpirySweep walks every non-terminal contract with an end date, firing
// threshold alerts at most once each and scheduling exact-day reminders.
func (s *Service) ExpirySweep(ctx context.Context, today time.Time) (SweepResult, error) {
	if s == nil {
		return SweepResult{}, errors.New("contract: nil service")
	}
	started := s.clock.Now()
	contracts, err := s.contracts.ListForExpirySweep(ctx)
	if err != nil {
		metrics.ObserveExpirySweep(metrics.ResultError, s.clock.Now().Sub(started))
		return SweepResult{}, err
	}
	var result SweepResult
	for _, c := range contracts {
		days := contract.DaysUntilEnd(c.EndDate, today)
		if threshold, due := contract.NextAlert(days, c.AlertThreshold); due {
			c.AlertThreshold = threshold
			c.UpdatedAt = s.clock.Now().UTC()
			if err := s.contracts.Update(ctx, c); err != nil {
				metrics.ObserveExpirySweep(metrics.ResultError, s.clock.Now().Sub(started))
				return result, err
			}
			result.Alerts++
			s.publish(ctx, events.EndDateAlert{
				ContractID:    c.ID,
				ThresholdDays: threshold,
				DaysUntilEnd:  days,
				OccurredAt:    c.UpdatedAt,
			})
		}
		if threshold, due := contract.ReminderDue(c.EndDate, today); due {
			result.Reminders++
			s.publish(ctx, events.RenewalReminder{
				ContractID:    c.ID,
				ThresholdDays: threshold,
				EndDate:       c.EndDate,
				OccurredAt:    s.clock.Now().UTC(),
			})
		}
	}
	metrics.AddExpiryAlerts(result.Alerts)
	metrics.ObserveExpirySweep(metrics.ResultSuccess, s.clock.Now().Sub(started))
	return result, nil
}

// Get loads a contract.
func (s *Service) Get(ctx context.Context, contractID string) (*contract.Contract, error) {
	if s == nil {
		return nil, errors.New("contract: nil service")
	}
	return s.contracts.Get(ctx, contractID)
}

// Ledger loads a contract's commission ledger.
func (s *Service) Ledger(ctx context.Context, contractID string) (commission.Ledger, error) {
	if s == nil {
		return commission.Ledger{}, errors.New("contract: nil service")
	}
	return s.ledger.ListByContract(ctx, contractID)
}

func (s *Service) publish(ctx context.Context, event any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.Printf("contract: publish %T: %v", event, err)
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
