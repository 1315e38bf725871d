package contract

import (
	"errors"
	"testing"
	"time"

	commission "energy-broker/internal/commission/domain"
)

func signedOutcome() SignatureOutcome {
	return SignatureOutcome{
		Status:      SignSigned,
		CompletedAt: time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
		DocumentID:  "att-42",
	}
}

func TestApplySignatureSignedAdvancesEarlyStates(t *testing.T) {
	for _, status := range []Status{StatusDraft, StatusDocPending, StatusSaleAgreed} {
		c := &Contract{ID: "c-1", Status: status, SignStatus: SignPending}
		c.ApplySignature(signedOutcome())
		if c.Status != StatusConfirmed {
			t.Fatalf("from %s: expected confirmed, got %s", status, c.Status)
		}
		if c.SignStatus != SignSigned {
			t.Fatalf("expected sign status signed, got %s", c.SignStatus)
		}
		if c.SignCompletedAt.IsZero() {
			t.Fatal("expected completion time recorded")
		}
		if c.DocumentID != "att-42" {
			t.Fatalf("expected executed document attached, got %q", c.DocumentID)
		}
	}
}

func TestApplySignatureSignedIsIdempotent(t *testing.T) {
	c := &Contract{ID: "c-1", Status: StatusDraft, SignStatus: SignPending}
	c.ApplySignature(signedOutcome())
	once := *c
	c.ApplySignature(signedOutcome())
	if *c != once {
		t.Fatalf("second application changed state: %+v vs %+v", *c, once)
	}
}

func TestApplySignatureSignedDoesNotRegressLateStates(t *testing.T) {
	for _, status := range []Status{StatusConfirmed, StatusAccepted, StatusLive, StatusComplete, StatusPaymentConfirmed} {
		c := &Contract{ID: "c-1", Status: status, SignStatus: SignPending}
		c.ApplySignature(signedOutcome())
		if c.Status != status {
			t.Fatalf("from %s: state moved to %s", status, c.Status)
		}
		if c.SignStatus != SignSigned {
			t.Fatalf("expected sign status signed, got %s", c.SignStatus)
		}
	}
}

func TestApplySignatureRefusedRaisesQuery(t *testing.T) {
	c := &Contract{ID: "c-1", Status: StatusLive, SignStatus: SignPending}
	c.ApplySignature(SignatureOutcome{Status: SignRefused})
	if c.Status != StatusQuery {
		t.Fatalf("expected query, got %s", c.Status)
	}
	if c.SignStatus != SignRefused {
		t.Fatalf("expected refused, got %s", c.SignStatus)
	}

	for _, status := range []Status{StatusCancelled, StatusCOTCancelled} {
		c := &Contract{ID: "c-2", Status: status, SignStatus: SignPending}
		c.ApplySignature(SignatureOutcome{Status: SignRefused})
		if c.Status != status {
			t.Fatalf("cancelled contract must keep %s, got %s", status, c.Status)
		}
	}
}

func TestApplySignatureCancelledLeavesLifecycleAlone(t *testing.T) {
	c := &Contract{ID: "c-1", Status: StatusSaleAgreed, SignStatus: SignPending}
	c.ApplySignature(SignatureOutcome{Status: SignCancelled})
	if c.Status != StatusSaleAgreed {
		t.Fatalf("expected sale_agreed, got %s", c.Status)
	}
	if c.SignStatus != SignCancelled {
		t.Fatalf("expected cancelled, got %s", c.SignStatus)
	}
}

func TestApplySignatureUnknownDefaultsToPending(t *testing.T) {
	c := &Contract{ID: "c-1", Status: StatusDraft, SignStatus: SignDraft}
	c.ApplySignature(SignatureOutcome{Status: SignStatus("emailed")})
	if c.SignStatus != SignPending {
		t.Fatalf("expected pending, got %s", c.SignStatus)
	}
	if c.Status != StatusDraft {
		t.Fatalf("expected draft, got %s", c.Status)
	}
}

func TestTransitionMainChain(t *testing.T) {
	c := &Contract{ID: "c-1", Status: StatusDraft}
	chain := []Status{StatusDocPending, StatusSaleAgreed, StatusConfirmed, StatusAccepted, StatusLive, StatusComplete}
	for _, next := range chain {
		if err := c.Transition(next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	if err := c.Transition(StatusLive); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected terminal error, got %v", err)
	}
}

func TestTransitionSideBranches(t *testing.T) {
	for _, branch := range []Status{StatusPaymentConfirmed, StatusQuery, StatusCOTCancelled, StatusCancelled} {
		c := &Contract{ID: "c-1", Status: StatusAccepted}
		if err := c.Transition(branch); err != nil {
			t.Fatalf("transition to %s: %v", branch, err)
		}
	}
}

func TestTransitionRejectsSkipsAndUnknown(t *testing.T) {
	c := &Contract{ID: "c-1", Status: StatusDraft}
	if err := c.Transition(StatusLive); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if err := c.Transition(Status("limbo")); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected unknown status, got %v", err)
	}
	if err := c.Transition(StatusDraft); err != nil {
		t.Fatalf("self transition must be a no-op, got %v", err)
	}
}

func TestAttachRuleInvalidatesBreakdown(t *testing.T) {
	c := &Contract{ID: "c-1", UpliftPPerKWh: 2.0}
	c.Recompute(50000, commission.NewLedger(nil))
	if c.Commission.Base != 1000 {
		t.Fatalf("expected base 1000, got %v", c.Commission.Base)
	}
	c.AttachRule(&commission.Rule{SupplierPercent: 50})
	if c.Commission != (commission.Breakdown{}) {
		t.Fatalf("expected invalidated breakdown, got %+v", c.Commission)
	}
	c.Recompute(50000, commission.NewLedger(nil))
	if c.Commission.SupplierCommission != 500 {
		t.Fatalf("expected 500 after recompute, got %v", c.Commission.SupplierCommission)
	}
}

func TestSignerFallsBackToCustomer(t *testing.T) {
	c := &Contract{CustomerID: "cust-1"}
	if c.Signer() != "cust-1" {
		t.Fatalf("expected customer fallback, got %q", c.Signer())
	}
	c.SignerID = "signer-9"
	if c.Signer() != "signer-9" {
		t.Fatalf("expected explicit signer, got %q", c.Signer())
	}
}

func TestCanSendForSignature(t *testing.T) {
	c := &Contract{CustomerID: "cust-1"}
	if c.CanSendForSignature() {
		t.Fatal("missing template must block sending")
	}
	c.SignTemplateID = "tpl-1"
	if !c.CanSendForSignature() {
		t.Fatal("template plus counterparty must allow sending")
	}
	c.CustomerID = ""
	if c.CanSendForSignature() {
		t.Fatal("missing signer must block sending")
	}
}
