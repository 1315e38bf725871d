package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	commission "energy-broker/internal/commission/domain"
)

// ErrRuleNotFound is returned when no rule matches.
var ErrRuleNotFound = errors.New("rule repo: not found")

// RuleRepository is an in-memory rule store.
type RuleRepository struct {
	mu    sync.RWMutex
	rules map[string]commission.Rule
}

// NewRuleRepository constructs a repository.
func NewRuleRepository() *RuleRepository {
	return &RuleRepository{rules: make(map[string]commission.Rule)}
}

// Create stores a rule.
func (r *RuleRepository) Create(ctx context.Context, rule *commission.Rule) error {
	_ = ctx
	if rule == nil {
		return errors.New("rule repo: nil rule")
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.ID] = *rule
	return nil
}

// Get loads a rule copy.
func (r *RuleRepository) Get(ctx context.Context, id string) (*commission.Rule, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}
	return &rule, nil
}

// ListBySupplier lists rules for a supplier, shortest duration first.
func (r *RuleRepository) ListBySupplier(ctx context.Context, supplierID string) ([]*commission.Rule, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*commission.Rule
	for _, rule := range r.rules {
		if rule.SupplierID != supplierID {
			continue
		}
		copied := rule
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DurationYears != result[j].DurationYears {
			return result[i].DurationYears < result[j].DurationYears
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
