package contract

import (
	"fmt"
	"time"
)

// SignatureOutcome is one polled provider result, already mapped to the
// internal signature status. DocumentID carries the newest PDF attachment for
// a signed request, when one exists.
type SignatureOutcome struct {
	Status      SignStatus
	CompletedAt time.Time
	DocumentID  string
}

// ApplySignature reconciles a provider signature outcome into the contract.
// It is idempotent: re-applying the same outcome leaves the contract as a
// single application would.
//
//   - signed: signature status becomes signed, the completion time and
//     executed document are recorded, and a lifecycle state still in
//     {draft, doc_pending, sale_agreed} advances to confirmed. States past
//     confirmed are never regressed by a late callback.
//   - refused: signature status becomes refused and the lifecycle moves to
//     query for human review, unless already cancelled or cot_cancelled.
//   - cancelled: only the signature status changes; cancelling the signing
//     step does not cancel the contract.
//   - anything else: signature status becomes pending.
func (c *Contract) ApplySignature(outcome SignatureOutcome) {
	switch outcome.Status {
	case SignSigned:
		c.SignStatus = SignSigned
		if !outcome.CompletedAt.IsZero() {
			c.SignCompletedAt = outcome.CompletedAt
		}
		if outcome.DocumentID != "" {
			c.DocumentID = outcome.DocumentID
		}
		switch c.Status {
		case StatusDraft, StatusDocPending, StatusSaleAgreed:
			c.Status = StatusConfirmed
		}
	case SignRefused:
		c.SignStatus = SignRefused
		if c.Status != StatusCancelled && c.Status != StatusCOTCancelled {
			c.Status = StatusQuery
		}
	case SignCancelled:
		c.SignStatus = SignCancelled
	default:
		c.SignStatus = SignPending
	}
}

// forward transitions along the main chain; side branches are handled in
// Transition directly.
var mainChain = map[Status]Status{
	StatusDraft:      StatusDocPending,
	StatusDocPending: StatusSaleAgreed,
	StatusSaleAgreed: StatusConfirmed,
	StatusConfirmed:  StatusAccepted,
	StatusAccepted:   StatusLive,
	StatusLive:       StatusComplete,
}

// Transition moves the lifecycle to a new state, enforcing the state machine:
// the main chain advances one step at a time, while payment_confirmed, query,
// cot_cancelled and cancelled are reachable from any non-terminal state.
func (c *Contract) Transition(to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if c.Status == to {
		return nil
	}
	if c.Status.Terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, c.Status)
	}
	switch to {
	case StatusPaymentConfirmed, StatusQuery, StatusCOTCancelled, StatusCancelled:
		c.Status = to
		return nil
	}
	if next, ok := mainChain[c.Status]; ok && next == to {
		c.Status = to
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, to)
}
