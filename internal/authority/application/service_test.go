package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"energy-broker/internal/authority/application/events"
	authority "energy-broker/internal/authority/domain"
	"energy-broker/internal/authority/infrastructure/memory"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type recordingBus struct {
	published []any
}

func (b *recordingBus) Publish(ctx context.Context, event any) error {
	b.published = append(b.published, event)
	return nil
}

func newTestService(t *testing.T) (*Service, *memory.LOARepository, *recordingBus, *fakeClock) {
	t.Helper()
	repo := memory.NewLOARepository()
	bus := &recordingBus{}
	clock := &fakeClock{now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	service, err := NewService(repo, WithBus(bus), WithClock(clock))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, repo, bus, clock
}

func TestCreateDerivesExpiryFromIssueDate(t *testing.T) {
	service, _, bus, _ := newTestService(t)

	issue := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	loa, err := service.Create(context.Background(), CreateInput{
		CustomerID: "cust-1",
		IssueDate:  issue,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := time.Date(2027, 2, 10, 0, 0, 0, 0, time.UTC)
	if !loa.ExpiryDate.Equal(want) {
		t.Fatalf("expected expiry %s, got %s", want, loa.ExpiryDate)
	}
	if loa.Status != authority.StatusDraft {
		t.Fatalf("new LOA must start in draft, got %s", loa.Status)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one LOACreated event, got %d", len(bus.published))
	}
	created := bus.published[0].(events.LOACreated)
	if created.LOAID != loa.ID || !created.ExpiryDate.Equal(want) {
		t.Fatalf("unexpected event %+v", created)
	}
}

func TestCreateDefaultsIssueDateToToday(t *testing.T) {
	service, _, _, clock := newTestService(t)

	loa, err := service.Create(context.Background(), CreateInput{CustomerID: "cust-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !loa.IssueDate.Equal(clock.now) {
		t.Fatalf("expected issue date %s, got %s", clock.now, loa.IssueDate)
	}
	if !loa.ExpiryDate.Equal(clock.now.AddDate(0, 12, 0)) {
		t.Fatalf("unexpected expiry %s", loa.ExpiryDate)
	}
}

func TestSignedThenValidatedBecomesUsable(t *testing.T) {
	service, repo, _, clock := newTestService(t)
	loa, err := service.Create(context.Background(), CreateInput{CustomerID: "cust-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.MarkSent(context.Background(), loa.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if _, err := service.MarkSigned(context.Background(), loa.ID); err != nil {
		t.Fatalf("mark signed: %v", err)
	}
	validated, err := service.Validate(context.Background(), loa.ID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validated.Status != authority.StatusValid {
		t.Fatalf("expected valid, got %s", validated.Status)
	}
	stored, _ := repo.Get(context.Background(), loa.ID)
	if !stored.UsableFor(clock.now) {
		t.Fatal("a valid, unexpired LOA must be usable")
	}
}

func TestValidateRejectsExpiredLOA(t *testing.T) {
	service, _, _, clock := newTestService(t)

	loa, err := service.Create(context.Background(), CreateInput{
		CustomerID: "cust-1",
		IssueDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Expiry 2026-01-01 is well behind the clock at 2026-06-01.
	if _, err := service.Validate(context.Background(), loa.ID); !errors.Is(err, authority.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if !loa.Expired(clock.now) {
		t.Fatal("sanity: the LOA must read as expired")
	}
}

func TestExpirySweepFlipsOverdueOnce(t *testing.T) {
	service, repo, bus, clock := newTestService(t)

	overdue, err := service.Create(context.Background(), CreateInput{
		CustomerID: "cust-1",
		IssueDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create overdue: %v", err)
	}
	clock.now = clock.now.Add(time.Second)
	current, err := service.Create(context.Background(), CreateInput{
		CustomerID: "cust-2",
		IssueDate:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create current: %v", err)
	}

	today := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	expired, err := service.ExpirySweep(context.Background(), today)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired LOA, got %d", expired)
	}
	stored, _ := repo.Get(context.Background(), overdue.ID)
	if stored.Status != authority.StatusExpired {
		t.Fatalf("expected expired, got %s", stored.Status)
	}
	untouched, _ := repo.Get(context.Background(), current.ID)
	if untouched.Status == authority.StatusExpired {
		t.Fatal("an in-date LOA must not expire")
	}

	var expiredEvents int
	for _, event := range bus.published {
		if e, ok := event.(events.LOAExpired); ok {
			expiredEvents++
			if e.LOAID != overdue.ID {
				t.Fatalf("unexpected event %+v", e)
			}
		}
	}
	if expiredEvents != 1 {
		t.Fatalf("expected one LOAExpired event, got %d", expiredEvents)
	}

	// Same-day rerun changes nothing.
	expired, err = service.ExpirySweep(context.Background(), today)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if expired != 0 {
		t.Fatalf("expected an idempotent rerun, got %d", expired)
	}
}

func TestExpiryBoundaryIsInclusive(t *testing.T) {
	service, _, _, _ := newTestService(t)

	loa, err := service.Create(context.Background(), CreateInput{
		CustomerID: "cust-1",
		IssueDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// On the expiry date itself the LOA still stands.
	onExpiry := time.Date(2026, 6, 1, 23, 0, 0, 0, time.UTC)
	expired, err := service.ExpirySweep(context.Background(), onExpiry)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if expired != 0 {
		t.Fatalf("LOA must not expire on its expiry date, got %d", expired)
	}

	dayAfter := onExpiry.AddDate(0, 0, 1)
	expired, err = service.ExpirySweep(context.Background(), dayAfter)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if expired != 1 {
		t.Fatalf("LOA must expire the day after, got %d", expired)
	}
	stored, err := service.Get(context.Background(), loa.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != authority.StatusExpired {
		t.Fatalf("expected expired, got %s", stored.Status)
	}
}
