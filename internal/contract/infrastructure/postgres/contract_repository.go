package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	commission "energy-broker/internal/commission/domain"
	contract "energy-broker/internal/contract/domain"
)

// ContractRepository persists contracts and their commission breakdowns.
type ContractRepository struct {
	db *sql.DB
}

// NewContractRepository constructs a repository.
func NewContractRepository(db *sql.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

const contractColumns = `
c.id, c.name, c.customer_id, c.supplier_id, c.lead_id, c.loa_id, c.type,
c.unit_rate_p_per_kwh, c.standing_per_day, c.start_date, c.end_date,
c.request_id, c.response_id, c.uplift_p_per_kwh,
c.base_commission, c.supplier_commission, c.full_commission,
c.first_payment, c.amount_total, c.to_pay,
c.status, c.sign_status, c.sign_template_id, c.sign_request_id,
c.signer_id, c.sign_completed_at, c.document_id, c.alert_threshold,
c.created_at, c.updated_at,
r.id, r.name, r.supplier_id, r.duration_years,
r.supplier_percent, r.broker_split_percent, r.upfront_percent`

const contractJoin = `
FROM contracts c
LEFT JOIN commission_rules r ON r.id = c.rule_id`

// Create inserts a contract.
func (repo *ContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	if repo == nil || repo.db == nil {
		return errors.New("contract repo: nil db")
	}
	if c == nil {
		return contract.ErrNilContract
	}
	ruleID := sql.NullString{}
	if c.Rule != nil {
		ruleID = sql.NullString{String: c.Rule.ID, Valid: true}
	}
	_, err := repo.db.ExecContext(ctx, `
INSERT INTO contracts (
	id, name, customer_id, supplier_id, lead_id, loa_id, type,
	unit_rate_p_per_kwh, standing_per_day, start_date, end_date,
	request_id, response_id, uplift_p_per_kwh, rule_id,
	base_commission, supplier_commission, full_commission,
	first_payment, amount_total, to_pay,
	status, sign_status, sign_template_id, sign_request_id,
	signer_id, sign_completed_at, document_id, alert_threshold,
	created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,
	$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31
)`,
		c.ID, c.Name, c.CustomerID, c.SupplierID, c.LeadID, c.LOAID, c.Type,
		c.UnitRatePPerKWh, c.StandingPerDay, nullTime(c.StartDate), nullTime(c.EndDate),
		c.RequestID, c.ResponseID, c.UpliftPPerKWh, ruleID,
		c.Commission.Base, c.Commission.SupplierCommission, c.Commission.FullCommission,
		c.Commission.FirstPayment, c.Commission.AmountTotal, c.Commission.ToPay,
		c.Status, c.SignStatus, c.SignTemplateID, c.SignRequestID,
		c.SignerID, nullTime(c.SignCompletedAt), c.DocumentID, c.AlertThreshold,
		c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// Update replaces all mutable contract fields.
func (repo *ContractRepository) Update(ctx context.Context, c *contract.Contract) error {
	if repo == nil || repo.db == nil {
		return errors.New("contract repo: nil db")
	}
	if c == nil {
		return contract.ErrNilContract
	}
	ruleID := sql.NullString{}
	if c.Rule != nil {
		ruleID = sql.NullString{String: c.Rule.ID, Valid: true}
	}
	result, err := repo.db.ExecContext(ctx, `
UPDATE contracts SET
	name = $2, customer_id = $3, supplier_id = $4, lead_id = $5, loa_id = $6,
	type = $7, unit_rate_p_per_kwh = $8, standing_per_day = $9,
	start_date = $10, end_date = $11, request_id = $12, response_id = $13,
	uplift_p_per_kwh = $14, rule_id = $15,
	base_commission = $16, supplier_commission = $17, full_commission = $18,
	first_payment = $19, amount_total = $20, to_pay = $21,
	status = $22, sign_status = $23, sign_template_id = $24,
	sign_request_id = $25, signer_id = $26, sign_completed_at = $27,
	document_id = $28, alert_threshold = $29, updated_at = $30
WHERE id = $1`,
		c.ID, c.Name, c.CustomerID, c.SupplierID, c.LeadID, c.LOAID,
		c.Type, c.UnitRatePPerKWh, c.StandingPerDay,
		nullTime(c.StartDate), nullTime(c.EndDate), c.RequestID, c.ResponseID,
		c.UpliftPPerKWh, ruleID,
		c.Commission.Base, c.Commission.SupplierCommission, c.Commission.FullCommission,
		c.Commission.FirstPayment, c.Commission.AmountTotal, c.Commission.ToPay,
		c.Status, c.SignStatus, c.SignTemplateID,
		c.SignRequestID, c.SignerID, nullTime(c.SignCompletedAt),
		c.DocumentID, c.AlertThreshold, c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return contract.ErrNotFound
	}
	return nil
}

// Get loads a contract with its commission rule.
func (repo *ContractRepository) Get(ctx context.Context, id string) (*contract.Contract, error) {
	if repo == nil || repo.db == nil {
		return nil, errors.New("contract repo: nil db")
	}
	row := repo.db.QueryRowContext(ctx, `SELECT `+contractColumns+contractJoin+`
WHERE c.id = $1
LIMIT 1`, id)
	c, err := scanContract(row)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, contract.ErrNotFound
	}
	return c, nil
}

// ListByStatus lists contracts in a lifecycle state.
func (repo *ContractRepository) ListByStatus(ctx context.Context, status contract.Status) ([]*contract.Contract, error) {
	if repo == nil || repo.db == nil {
		return nil, errors.New("contract repo: nil db")
	}
	return repo.list(ctx, `SELECT `+contractColumns+contractJoin+`
WHERE c.status = $1
ORDER BY c.created_at ASC`, string(status))
}

// ListForExpirySweep lists non-terminal contracts with an end date set.
func (repo *ContractRepository) ListForExpirySweep(ctx context.Context) ([]*contract.Contract, error) {
	if repo == nil || repo.db == nil {
		return nil, errors.New("contract repo: nil db")
	}
	return repo.list(ctx, `SELECT `+contractColumns+contractJoin+`
WHERE c.status NOT IN ('complete','cancelled','cot_cancelled')
	AND c.end_date IS NOT NULL
ORDER BY c.end_date ASC`)
}

// ListPendingSignature lists contracts awaiting a signature outcome.
func (repo *ContractRepository) ListPendingSignature(ctx context.Context) ([]*contract.Contract, error) {
	if repo == nil || repo.db == nil {
		return nil, errors.New("contract repo: nil db")
	}
	return repo.list(ctx, `SELECT `+contractColumns+contractJoin+`
WHERE c.sign_status = 'pending' AND c.sign_request_id <> ''
ORDER BY c.updated_at ASC`)
}

func (repo *ContractRepository) list(ctx context.Context, query string, args ...any) ([]*contract.Contract, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*contract.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		if c != nil {
			result = append(result, c)
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

func scanContract(row rowScanner) (*contract.Contract, error) {
	var c contract.Contract
	var startDate, endDate, signCompletedAt sql.NullTime
	var ruleID, ruleName, ruleSupplier sql.NullString
	var ruleDuration sql.NullInt64
	var ruleSupplierPct, ruleSplitPct, ruleUpfrontPct sql.NullFloat64
	err := row.Scan(
		&c.ID, &c.Name, &c.CustomerID, &c.SupplierID, &c.LeadID, &c.LOAID, &c.Type,
		&c.UnitRatePPerKWh, &c.StandingPerDay, &startDate, &endDate,
		&c.RequestID, &c.ResponseID, &c.UpliftPPerKWh,
		&c.Commission.Base, &c.Commission.SupplierCommission, &c.Commission.FullCommission,
		&c.Commission.FirstPayment, &c.Commission.AmountTotal, &c.Commission.ToPay,
		&c.Status, &c.SignStatus, &c.SignTemplateID, &c.SignRequestID,
		&c.SignerID, &signCompletedAt, &c.DocumentID, &c.AlertThreshold,
		&c.CreatedAt, &c.UpdatedAt,
		&ruleID, &ruleName, &ruleSupplier, &ruleDuration,
		&ruleSupplierPct, &ruleSplitPct, &ruleUpfrontPct,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if startDate.Valid {
		c.StartDate = startDate.Time.UTC()
	}
	if endDate.Valid {
		c.EndDate = endDate.Time.UTC()
	}
	if signCompletedAt.Valid {
		c.SignCompletedAt = signCompletedAt.Time.UTC()
	}
	if ruleID.Valid {
		rule := commission.Rule{
			ID:                 ruleID.String,
			Name:               ruleName.String,
			SupplierID:         ruleSupplier.String,
			DurationYears:      int(ruleDuration.Int64),
			SupplierPercent:    ruleSupplierPct.Float64,
			BrokerSplitPercent: ruleSplitPct.Float64,
		}
		if ruleUpfrontPct.Valid {
			rule.UpfrontPercent = commission.Upfront(ruleUpfrontPct.Float64)
		}
		c.Rule = &rule
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
