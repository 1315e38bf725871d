package eventing

import (
	"context"
	"errors"
	"testing"
	"time"
)

type contractWentLive struct {
	ContractID string
	OccurredAt time.Time
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewInMemoryBus()
	var got []contractWentLive
	bus.Subscribe(EventTypeOf[contractWentLive](), func(ctx context.Context, event any) error {
		got = append(got, event.(contractWentLive))
		return nil
	})

	event := contractWentLive{ContractID: "c1", OccurredAt: time.Now()}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 || got[0].ContractID != "c1" {
		t.Fatalf("expected delivery, got %+v", got)
	}
}

func TestPublishBuildsEnvelopeWithContractID(t *testing.T) {
	bus := NewInMemoryBus()
	var env Envelope
	bus.Subscribe(EventTypeOf[contractWentLive](), func(ctx context.Context, event any) error {
		env, _ = EnvelopeFromContext(ctx)
		return nil
	})
	if err := bus.Publish(context.Background(), contractWentLive{ContractID: "c7"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if env.ContractID != "c7" {
		t.Fatalf("expected contract id on envelope, got %q", env.ContractID)
	}
	if env.EventID == "" || env.CorrelationID == "" {
		t.Fatalf("expected generated ids, got %+v", env)
	}
}

func TestPublishNilEvent(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.Publish(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Fatalf("expected ErrNilEvent, got %v", err)
	}
}

func TestPublishReturnsFirstHandlerError(t *testing.T) {
	bus := NewInMemoryBus()
	wantErr := errors.New("boom")
	calls := 0
	bus.Subscribe(EventTypeOf[contractWentLive](), func(ctx context.Context, event any) error {
		calls++
		return wantErr
	})
	bus.Subscribe(EventTypeOf[contractWentLive](), func(ctx context.Context, event any) error {
		calls++
		return nil
	})
	err := bus.Publish(context.Background(), contractWentLive{ContractID: "c1"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected first handler error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("all handlers must run, got %d calls", calls)
	}
}

type memoryProcessedStore struct {
	seen map[string]bool
}

func (s *memoryProcessedStore) HasProcessed(ctx context.Context, eventID, consumer string) (bool, error) {
	return s.seen[eventID+"/"+consumer], nil
}

func (s *memoryProcessedStore) MarkProcessed(ctx context.Context, eventID, consumer string) error {
	s.seen[eventID+"/"+consumer] = true
	return nil
}

func TestWrapHandlerSkipsProcessedEvents(t *testing.T) {
	store := &memoryProcessedStore{seen: make(map[string]bool)}
	calls := 0
	handler := WrapHandler("reminders", func(ctx context.Context, event any) error {
		calls++
		return nil
	}, store)

	env := Envelope{EventID: "evt-1"}
	ctx := WithEnvelope(context.Background(), env)
	if err := handler(ctx, contractWentLive{}); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := handler(ctx, contractWentLive{}); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one effective delivery, got %d", calls)
	}
}
