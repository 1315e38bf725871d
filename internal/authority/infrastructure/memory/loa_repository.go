package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	authority "energy-broker/internal/authority/domain"
)

// LOARepository is an in-memory LOA store for demo/testing.
type LOARepository struct {
	mu   sync.RWMutex
	data map[string]authority.LOA
}

// NewLOARepository constructs a repository.
func NewLOARepository() *LOARepository {
	return &LOARepository{data: make(map[string]authority.LOA)}
}

// Create stores an LOA.
func (r *LOARepository) Create(ctx context.Context, loa *authority.LOA) error {
	_ = ctx
	if loa == nil {
		return authority.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[loa.ID] = *loa
	return nil
}

// Update replaces a stored LOA.
func (r *LOARepository) Update(ctx context.Context, loa *authority.LOA) error {
	_ = ctx
	if loa == nil {
		return authority.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[loa.ID]; !ok {
		return authority.ErrNotFound
	}
	r.data[loa.ID] = *loa
	return nil
}

// Get loads an LOA copy.
func (r *LOARepository) Get(ctx context.Context, id string) (*authority.LOA, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	loa, ok := r.data[id]
	if !ok {
		return nil, authority.ErrNotFound
	}
	return &loa, nil
}

// ListDueForExpiry lists LOAs past their expiry date but not yet expired.
func (r *LOARepository) ListDueForExpiry(ctx context.Context, today time.Time) ([]*authority.LOA, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*authority.LOA
	for _, loa := range r.data {
		if loa.Status == authority.StatusExpired {
			continue
		}
		if !loa.Expired(today) {
			continue
		}
		copied := loa
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
