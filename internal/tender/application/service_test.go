package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"energy-broker/internal/auth"
	authority "energy-broker/internal/authority/domain"
	"energy-broker/internal/pricing"
	"energy-broker/internal/tender/adapters/jellyfish"
	"energy-broker/internal/tender/application/events"
	tender "energy-broker/internal/tender/domain"
	tendermem "energy-broker/internal/tender/infrastructure/memory"
)

const validMPAN = "1200023305963"

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type stubLOAReader struct {
	loa *authority.LOA
	err error
}

func (s *stubLOAReader) Get(ctx context.Context, id string) (*authority.LOA, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.loa, nil
}

type stubFetcher struct {
	offers []jellyfish.Offer
	err    error
	gotReq jellyfish.QuoteRequest
}

func (s *stubFetcher) FetchQuotes(ctx context.Context, req jellyfish.QuoteRequest) ([]jellyfish.Offer, error) {
	s.gotReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.offers, nil
}

type recordingBus struct {
	published []any
}

func (b *recordingBus) Publish(ctx context.Context, event any) error {
	b.published = append(b.published, event)
	return nil
}

func usableLOA(clock *fakeClock) *authority.LOA {
	loa := authority.NewLOA("loa-1", "cust-1", clock.now.AddDate(0, -1, 0))
	_ = loa.Validate(clock.now)
	return loa
}

func newTestService(t *testing.T, clock *fakeClock, opts ...ServiceOption) (*Service, *tendermem.RequestRepository, *tendermem.ResponseRepository) {
	t.Helper()
	requests := tendermem.NewRequestRepository()
	responses := tendermem.NewResponseRepository()
	loas := &stubLOAReader{loa: usableLOA(clock)}
	opts = append([]ServiceOption{WithClock(clock)}, opts...)
	service, err := NewService(requests, responses, loas, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, requests, responses
}

func createRequest(t *testing.T, s *Service, suppliers []string, email string) *tender.PriceRequest {
	t.Helper()
	req, err := s.CreateRequest(context.Background(), CreateRequestInput{
		Name:          "Acme renewal",
		LOAID:         "loa-1",
		CustomerID:    "cust-1",
		CustomerEmail: email,
		Suppliers:     suppliers,
		Lines: []LineInput{
			{Identifier: validMPAN, MeterType: tender.MeterNonHalfHourly, AnnualUsageKWh: 20000},
		},
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return req
}

func TestCreateRequestValidatesLines(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	service, requests, _ := newTestService(t, clock)

	req := createRequest(t, service, []string{"edf"}, "ops@acme.test")
	stored, err := requests.Get(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Lines) != 1 || stored.Lines[0].Meter.Core != validMPAN {
		t.Fatalf("unexpected stored lines %+v", stored.Lines)
	}
	if stored.State != tender.RequestDraft {
		t.Fatalf("expected draft, got %s", stored.State)
	}

	_, err = service.CreateRequest(context.Background(), CreateRequestInput{
		Lines: []LineInput{{Identifier: "1200023305967", MeterType: tender.MeterNonHalfHourly}},
	})
	if err == nil {
		t.Fatal("expected a checksum error")
	}
}

func TestSendRequestRequiresUsableLOA(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	requests := tendermem.NewRequestRepository()
	responses := tendermem.NewResponseRepository()
	expired := authority.NewLOA("loa-1", "cust-1", clock.now.AddDate(-2, 0, 0))
	service, err := NewService(requests, responses, &stubLOAReader{loa: expired}, WithClock(clock))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	req := createRequest(t, service, []string{"edf"}, "")

	if err := service.SendRequest(context.Background(), req.ID); !errors.Is(err, authority.ErrNotUsable) {
		t.Fatalf("expected ErrNotUsable, got %v", err)
	}
	stored, _ := requests.Get(context.Background(), req.ID)
	if stored.State != tender.RequestDraft {
		t.Fatalf("blocked send must not change state, got %s", stored.State)
	}
}

func TestSendRequestRequiresSuppliers(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	service, _, _ := newTestService(t, clock)
	req := createRequest(t, service, nil, "")

	if err := service.SendRequest(context.Background(), req.ID); !errors.Is(err, tender.ErrNoSuppliers) {
		t.Fatalf("expected ErrNoSuppliers, got %v", err)
	}
}

func TestSendRequestMarksSentAndPublishes(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	bus := &recordingBus{}
	service, requests, _ := newTestService(t, clock, WithBus(bus))
	req := createRequest(t, service, []string{"edf", "octopus"}, "")

	if err := service.SendRequest(context.Background(), req.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	stored, _ := requests.Get(context.Background(), req.ID)
	if stored.State != tender.RequestSent {
		t.Fatalf("expected sent, got %s", stored.State)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	if _, ok := bus.published[0].(events.RequestSent); !ok {
		t.Fatalf("expected RequestSent, got %T", bus.published[0])
	}
}

func TestImportQuotesMapsOffers(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	fetcher := &stubFetcher{offers: []jellyfish.Offer{
		{MeterIdentifier: validMPAN, UnitRatePPerKWh: 10.0, StandingPerDay: 0.50, TermYears: 2},
		{MeterIdentifier: "9999999999999", UnitRatePPerKWh: 9.0},
	}}
	bus := &recordingBus{}
	service, _, responses := newTestService(t, clock, WithQuoteFetcher(fetcher), WithBus(bus))
	req := createRequest(t, service, []string{"edf"}, "")

	resp, err := service.ImportQuotes(context.Background(), req.ID, "edf")
	if err != nil {
		t.Fatalf("import quotes: %v", err)
	}
	if len(fetcher.gotReq.Meters) != 1 || fetcher.gotReq.Meters[0].Identifier != validMPAN {
		t.Fatalf("unexpected quote request %+v", fetcher.gotReq)
	}
	if len(resp.Lines) != 1 {
		t.Fatalf("expected 1 mapped line, got %d", len(resp.Lines))
	}
	if resp.Lines[0].AnnualCost != 2182.5 {
		t.Fatalf("expected priced line, got %g", resp.Lines[0].AnnualCost)
	}
	stored, err := responses.Get(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("stored response: %v", err)
	}
	if len(stored.Lines) != 1 {
		t.Fatalf("expected stored lines, got %d", len(stored.Lines))
	}
	imported, ok := bus.published[0].(events.QuotesImported)
	if !ok {
		t.Fatalf("expected QuotesImported, got %T", bus.published[0])
	}
	if imported.Mapped != 1 || imported.Skipped != 1 {
		t.Fatalf("unexpected mapping counts %+v", imported)
	}
}

func TestImportQuotesEmptyMatchStillCreatesResponse(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	fetcher := &stubFetcher{offers: []jellyfish.Offer{
		{MeterIdentifier: "no-such-meter", UnitRatePPerKWh: 9.0},
	}}
	service, _, responses := newTestService(t, clock, WithQuoteFetcher(fetcher))
	req := createRequest(t, service, []string{"edf"}, "")

	resp, err := service.ImportQuotes(context.Background(), req.ID, "edf")
	if err != nil {
		t.Fatalf("import quotes: %v", err)
	}
	if len(resp.Lines) != 0 {
		t.Fatalf("expected zero lines, got %d", len(resp.Lines))
	}
	if _, err := responses.Get(context.Background(), resp.ID); err != nil {
		t.Fatalf("empty response must still be stored: %v", err)
	}
}

func TestSetLineUpliftManagerOnly(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	fetcher := &stubFetcher{offers: []jellyfish.Offer{
		{MeterIdentifier: validMPAN, UnitRatePPerKWh: 10.0, StandingPerDay: 0.50},
	}}
	service, _, responses := newTestService(t, clock,
		WithQuoteFetcher(fetcher),
		WithUpliftPolicy(pricing.UpliftPolicy{MaxPPerKWh: 3.0}),
	)
	req := createRequest(t, service, []string{"edf"}, "")
	resp, err := service.ImportQuotes(context.Background(), req.ID, "edf")
	if err != nil {
		t.Fatalf("import quotes: %v", err)
	}
	lineID := resp.Lines[0].ID

	if err := service.SetLineUplift(context.Background(), resp.ID, lineID, 1.0); !errors.Is(err, ErrManagerRequired) {
		t.Fatalf("expected ErrManagerRequired without identity, got %v", err)
	}

	brokerCtx := auth.WithIdentity(context.Background(), auth.RoleBroker, "user-1")
	if err := service.SetLineUplift(brokerCtx, resp.ID, lineID, 1.0); !errors.Is(err, ErrManagerRequired) {
		t.Fatalf("expected ErrManagerRequired, got %v", err)
	}

	managerCtx := auth.WithIdentity(context.Background(), auth.RoleManager, "user-2")
	if err := service.SetLineUplift(managerCtx, resp.ID, lineID, 1.0); err != nil {
		t.Fatalf("manager uplift: %v", err)
	}
	stored, _ := responses.Get(context.Background(), resp.ID)
	if stored.Lines[0].UnitRateWithUpliftPPerKWh != 11.0 {
		t.Fatalf("expected uplifted rate stored, got %g", stored.Lines[0].UnitRateWithUpliftPPerKWh)
	}

	if err := service.SetLineUplift(managerCtx, resp.ID, lineID, 5.0); !errors.Is(err, pricing.ErrUpliftExceedsMax) {
		t.Fatalf("expected ErrUpliftExceedsMax, got %v", err)
	}
}

func TestFinalizeComparisonRequiresCustomerEmail(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	fetcher := &stubFetcher{offers: nil}
	bus := &recordingBus{}
	service, _, responses := newTestService(t, clock, WithQuoteFetcher(fetcher), WithBus(bus))

	noEmail := createRequest(t, service, []string{"edf"}, "")
	resp, err := service.ImportQuotes(context.Background(), noEmail.ID, "edf")
	if err != nil {
		t.Fatalf("import quotes: %v", err)
	}
	err = service.FinalizeComparison(context.Background(), noEmail.ID, resp.ID)
	if !errors.Is(err, tender.ErrCustomerEmailRequired) {
		t.Fatalf("expected ErrCustomerEmailRequired, got %v", err)
	}

	clock.now = clock.now.Add(time.Second)
	withEmail := createRequest(t, service, []string{"edf"}, "ops@acme.test")
	clock.now = clock.now.Add(time.Second)
	resp2, err := service.ImportQuotes(context.Background(), withEmail.ID, "edf")
	if err != nil {
		t.Fatalf("import quotes: %v", err)
	}
	if err := service.FinalizeComparison(context.Background(), withEmail.ID, resp2.ID); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	stored, _ := responses.Get(context.Background(), resp2.ID)
	if !stored.BestOffer {
		t.Fatal("expected best offer flag set")
	}
	last := bus.published[len(bus.published)-1]
	if _, ok := last.(events.ComparisonFinalized); !ok {
		t.Fatalf("expected ComparisonFinalized, got %T", last)
	}
}
