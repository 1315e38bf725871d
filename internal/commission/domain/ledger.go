package commission

import (
	"errors"
	"time"
)

// Side distinguishes the two reconciliation ledgers.
type Side string

const (
	// SideSupplier records commission actually received from the supplier.
	SideSupplier Side = "supplier"
	// SideBroker records commission actually paid out to the broker.
	SideBroker Side = "broker"
)

// Valid returns true when the side is supported.
func (s Side) Valid() bool {
	return s == SideSupplier || s == SideBroker
}

var (
	ErrInvalidSide     = errors.New("commission: invalid ledger side")
	ErrEmptyContractID = errors.New("commission: empty contract id")
)

// LedgerEntry is an append-only record of an actual commission amount moved.
// Entries are never edited or deleted once appended.
type LedgerEntry struct {
	ID         string
	ContractID string
	Side       Side
	Date       time.Time
	Amount     float64
	Note       string
}

// Validate checks entry invariants before append.
func (e LedgerEntry) Validate() error {
	if e.ContractID == "" {
		return ErrEmptyContractID
	}
	if !e.Side.Valid() {
		return ErrInvalidSide
	}
	return nil
}

// Ledger is the reconciliation history for one contract.
type Ledger struct {
	entries []LedgerEntry
}

// NewLedger builds a ledger from existing entries.
func NewLedger(entries []LedgerEntry) Ledger {
	return Ledger{entries: append([]LedgerEntry(nil), entries...)}
}

// Append adds an entry, returning the extended ledger. The receiver is not
// mutated; existing entries are immutable.
func (l Ledger) Append(entry LedgerEntry) (Ledger, error) {
	if err := entry.Validate(); err != nil {
		return l, err
	}
	extended := append(append([]LedgerEntry(nil), l.entries...), entry)
	return Ledger{entries: extended}, nil
}

// Entries returns a copy of all entries in append order.
func (l Ledger) Entries() []LedgerEntry {
	return append([]LedgerEntry(nil), l.entries...)
}

// SupplierReceived sums supplier-side amounts.
func (l Ledger) SupplierReceived() (total float64, any bool) {
	return l.sum(SideSupplier)
}

// BrokerPaid sums broker-side amounts.
func (l Ledger) BrokerPaid() (total float64, any bool) {
	return l.sum(SideBroker)
}

func (l Ledger) sum(side Side) (float64, bool) {
	total := 0.0
	found := false
	for _, entry := range l.entries {
		if entry.Side != side {
			continue
		}
		total += entry.Amount
		found = true
	}
	return total, found
}
