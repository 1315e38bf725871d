package memory

import (
	"context"
	"sort"
	"sync"

	contract "energy-broker/internal/contract/domain"
)

// ContractRepository is an in-memory repository for demo/testing.
type ContractRepository struct {
	mu   sync.RWMutex
	data map[string]contract.Contract
}

// NewContractRepository constructs a repository.
func NewContractRepository() *ContractRepository {
	return &ContractRepository{data: make(map[string]contract.Contract)}
}

// Create inserts a contract.
func (r *ContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	_ = ctx
	if c == nil {
		return contract.ErrNilContract
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[c.ID] = *c
	return nil
}

// Update replaces a stored contract.
func (r *ContractRepository) Update(ctx context.Context, c *contract.Contract) error {
	_ = ctx
	if c == nil {
		return contract.ErrNilContract
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[c.ID]; !ok {
		return contract.ErrNotFound
	}
	r.data[c.ID] = *c
	return nil
}

// Get loads a contract copy.
func (r *ContractRepository) Get(ctx context.Context, id string) (*contract.Contract, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.data[id]
	if !ok {
		return nil, contract.ErrNotFound
	}
	return &c, nil
}

// ListByStatus lists contracts in a lifecycle state.
func (r *ContractRepository) ListByStatus(ctx context.Context, status contract.Status) ([]*contract.Contract, error) {
	_ = ctx
	return r.filter(func(c contract.Contract) bool {
		return c.Status == status
	}), nil
}

// ListForExpirySweep lists non-terminal contracts with an end date set.
func (r *ContractRepository) ListForExpirySweep(ctx context.Context) ([]*contract.Contract, error) {
	_ = ctx
	return r.filter(func(c contract.Contract) bool {
		return !c.Status.Terminal() && !c.EndDate.IsZero()
	}), nil
}

// ListPendingSignature lists contracts awaiting a signature outcome.
func (r *ContractRepository) ListPendingSignature(ctx context.Context) ([]*contract.Contract, error) {
	_ = ctx
	return r.filter(func(c contract.Contract) bool {
		return c.SignStatus == contract.SignPending && c.SignRequestID != ""
	}), nil
}

func (r *ContractRepository) filter(keep func(contract.Contract) bool) []*contract.Contract {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*contract.Contract
	for _, c := range r.data {
		if keep(c) {
			copied := c
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
