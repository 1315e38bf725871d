package commission

import (
	"errors"
	"testing"
)

func TestLedgerAppendDoesNotMutateReceiver(t *testing.T) {
	base := NewLedger(nil)
	extended, err := base.Append(LedgerEntry{ContractID: "c-1", Side: SideSupplier, Amount: 10})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(base.Entries()) != 0 {
		t.Fatalf("base ledger mutated: %d entries", len(base.Entries()))
	}
	if len(extended.Entries()) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(extended.Entries()))
	}
}

func TestLedgerSums(t *testing.T) {
	ledger := NewLedger([]LedgerEntry{
		{ContractID: "c-1", Side: SideSupplier, Amount: 100},
		{ContractID: "c-1", Side: SideSupplier, Amount: 50},
		{ContractID: "c-1", Side: SideBroker, Amount: 75},
	})
	received, any := ledger.SupplierReceived()
	if !any || received != 150 {
		t.Fatalf("expected 150 received, got %v (any=%v)", received, any)
	}
	paid, any := ledger.BrokerPaid()
	if !any || paid != 75 {
		t.Fatalf("expected 75 paid, got %v (any=%v)", paid, any)
	}

	empty := NewLedger(nil)
	if _, any := empty.SupplierReceived(); any {
		t.Fatal("empty ledger must report no supplier entries")
	}
}

func TestLedgerAppendValidation(t *testing.T) {
	ledger := NewLedger(nil)
	if _, err := ledger.Append(LedgerEntry{Side: SideSupplier}); !errors.Is(err, ErrEmptyContractID) {
		t.Fatalf("expected ErrEmptyContractID, got %v", err)
	}
	if _, err := ledger.Append(LedgerEntry{ContractID: "c-1", Side: Side("other")}); !errors.Is(err, ErrInvalidSide) {
		t.Fatalf("expected ErrInvalidSide, got %v", err)
	}
}
