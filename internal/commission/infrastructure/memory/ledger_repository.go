package memory

import (
	"context"
	"sync"

	commission "energy-broker/internal/commission/domain"
)

// LedgerRepository is an in-memory append-only ledger store.
type LedgerRepository struct {
	mu      sync.RWMutex
	entries map[string][]commission.LedgerEntry
}

// NewLedgerRepository constructs a repository.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{entries: make(map[string][]commission.LedgerEntry)}
}

// Append stores a ledger entry.
func (r *LedgerRepository) Append(ctx context.Context, entry commission.LedgerEntry) error {
	_ = ctx
	if err := entry.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ContractID] = append(r.entries[entry.ContractID], entry)
	return nil
}

// ListByContract builds a contract's ledger.
func (r *LedgerRepository) ListByContract(ctx context.Context, contractID string) (commission.Ledger, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	ledger := commission.NewLedger(nil)
	var err error
	for _, entry := range r.entries[contractID] {
		ledger, err = ledger.Append(entry)
		if err != nil {
			return commission.Ledger{}, err
		}
	}
	return ledger, nil
}
