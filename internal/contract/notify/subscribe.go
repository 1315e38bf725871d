package notify

import (
	"context"
	"log"

	"energy-broker/internal/contract/application/events"
	"energy-broker/internal/eventing"
)

// SubscribeRenewals registers the renewal webhook consumers on the bus.
// Posting to the webhook is an external side effect, so each consumer is
// wrapped with idempotency when a processed store is provided. Delivery
// failures are logged, never retried here.
func SubscribeRenewals(bus eventing.EventBus, notifier Notifier, processed eventing.ProcessedStore, logger *log.Logger) {
	if bus == nil || notifier == nil {
		return
	}
	eventing.Subscribe(bus, eventing.EventTypeOf[events.EndDateAlert](), "notify.renewal.alert", func(ctx context.Context, event any) error {
		evt, ok := event.(events.EndDateAlert)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		err := notifier.Notify(ctx, RenewalMessage{
			ContractID:    evt.ContractID,
			ThresholdDays: evt.ThresholdDays,
			DaysUntilEnd:  evt.DaysUntilEnd,
			Kind:          "alert",
		})
		if err != nil && logger != nil {
			logger.Printf("renewal webhook error: %v", err)
		}
		return nil
	}, processed)
	eventing.Subscribe(bus, eventing.EventTypeOf[events.RenewalReminder](), "notify.renewal.reminder", func(ctx context.Context, event any) error {
		evt, ok := event.(events.RenewalReminder)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		err := notifier.Notify(ctx, RenewalMessage{
			ContractID:    evt.ContractID,
			ThresholdDays: evt.ThresholdDays,
			EndDate:       evt.EndDate.Format("2006-01-02"),
			Kind:          "reminder",
		})
		if err != nil && logger != nil {
			logger.Printf("renewal webhook error: %v", err)
		}
		return nil
	}, processed)
}
