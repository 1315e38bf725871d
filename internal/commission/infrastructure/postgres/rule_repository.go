package postgres

import (
	"context"
	"database/sql"
	"errors"

	commission "energy-broker/internal/commission/domain"
)

// ErrRuleNotFound is returned when no rule matches.
var ErrRuleNotFound = errors.New("rule repo: not found")

// RuleRepository persists commission rules.
type RuleRepository struct {
	db *sql.DB
}

// NewRuleRepository constructs a repository.
func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// Create inserts a rule.
func (r *RuleRepository) Create(ctx context.Context, rule *commission.Rule) error {
	if r == nil || r.db == nil {
		return errors.New("rule repo: nil db")
	}
	if rule == nil {
		return errors.New("rule repo: nil rule")
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	upfront := sql.NullFloat64{}
	if rule.UpfrontPercent != nil {
		upfront = sql.NullFloat64{Float64: *rule.UpfrontPercent, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO commission_rules (
	id, name, supplier_id, duration_years,
	supplier_percent, broker_split_percent, upfront_percent
) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rule.ID, rule.Name, rule.SupplierID, rule.DurationYears,
		rule.SupplierPercent, rule.BrokerSplitPercent, upfront,
	)
	return err
}

// Get loads a rule by id.
func (r *RuleRepository) Get(ctx context.Context, id string) (*commission.Rule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("rule repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, supplier_id, duration_years,
	supplier_percent, broker_split_percent, upfront_percent
FROM commission_rules
WHERE id = $1
LIMIT 1`, id)
	rule, err := scanRule(row)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}
	return rule, nil
}

// ListBySupplier lists rules for a supplier, shortest duration first.
func (r *RuleRepository) ListBySupplier(ctx context.Context, supplierID string) ([]*commission.Rule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("rule repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, supplier_id, duration_years,
	supplier_percent, broker_split_percent, upfront_percent
FROM commission_rules
WHERE supplier_id = $1
ORDER BY duration_years ASC, id ASC`, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*commission.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		if rule != nil {
			result = append(result, rule)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*commission.Rule, error) {
	var rule commission.Rule
	var upfront sql.NullFloat64
	err := row.Scan(
		&rule.ID, &rule.Name, &rule.SupplierID, &rule.DurationYears,
		&rule.SupplierPercent, &rule.BrokerSplitPercent, &upfront,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if upfront.Valid {
		rule.UpfrontPercent = commission.Upfront(upfront.Float64)
	}
	return &rule, nil
}
