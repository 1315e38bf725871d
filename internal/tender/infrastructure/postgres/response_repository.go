package postgres

import (
	"context"
	"database/sql"
	"errors"

	tender "energy-broker/internal/tender/domain"
)

// ResponseRepository persists supplier price responses and their offer lines.
type ResponseRepository struct {
	db *sql.DB
}

// NewResponseRepository constructs a repository.
func NewResponseRepository(db *sql.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// CreateWithLines inserts a response and its lines in one transaction.
func (r *ResponseRepository) CreateWithLines(ctx context.Context, resp *tender.PriceResponse) error {
	if r == nil || r.db == nil {
		return errors.New("response repo: nil db")
	}
	if resp == nil {
		return errors.New("response repo: nil response")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO price_responses (
	id, name, request_id, supplier_id, lead_id, notes, best_offer,
	created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		resp.ID, resp.Name, resp.RequestID, resp.SupplierID, resp.LeadID, resp.Notes, resp.BestOffer,
		resp.CreatedAt, resp.UpdatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, line := range resp.Lines {
		_, err := tx.ExecContext(ctx, `
INSERT INTO price_response_lines (
	id, response_id, request_line_id,
	unit_rate_p_per_kwh, standing_per_day, contract_term_years,
	capacity_per_kva, annual_usage_kwh, annual_cost,
	uplift_p_per_kwh, unit_rate_with_uplift, annual_cost_with_uplift
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			line.ID, resp.ID, line.RequestLineID,
			line.Quote.UnitRatePPerKWh, line.Quote.StandingPerDay, line.Quote.ContractTermYears,
			line.Quote.CapacityPerKVA, line.Quote.AnnualUsageKWh, line.AnnualCost,
			line.UpliftPPerKWh, line.UnitRateWithUpliftPPerKWh, line.AnnualCostWithUplift,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// UpdateLine replaces a line's uplift and derived cost figures.
func (r *ResponseRepository) UpdateLine(ctx context.Context, responseID string, line tender.ResponseLine) error {
	if r == nil || r.db == nil {
		return errors.New("response repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE price_response_lines SET
	uplift_p_per_kwh = $3, unit_rate_with_uplift = $4,
	annual_cost_with_uplift = $5, annual_cost = $6
WHERE id = $1 AND response_id = $2`,
		line.ID, responseID,
		line.UpliftPPerKWh, line.UnitRateWithUpliftPPerKWh,
		line.AnnualCostWithUplift, line.AnnualCost,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return tender.ErrNotFound
	}
	return nil
}

// MarkBestOffer flags one response of a request as the best offer and clears
// the flag on its siblings.
func (r *ResponseRepository) MarkBestOffer(ctx context.Context, requestID, responseID string) error {
	if r == nil || r.db == nil {
		return errors.New("response repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE price_responses SET best_offer = FALSE, updated_at = NOW()
WHERE request_id = $1`, requestID); err != nil {
		_ = tx.Rollback()
		return err
	}
	result, err := tx.ExecContext(ctx, `
UPDATE price_responses SET best_offer = TRUE, updated_at = NOW()
WHERE id = $1 AND request_id = $2`, responseID, requestID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if affected == 0 {
		_ = tx.Rollback()
		return tender.ErrNotFound
	}
	return tx.Commit()
}

// Get loads a response with its lines.
func (r *ResponseRepository) Get(ctx context.Context, id string) (*tender.PriceResponse, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("response repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, request_id, supplier_id, lead_id, notes, best_offer,
	created_at, updated_at
FROM price_responses
WHERE id = $1
LIMIT 1`, id)
	resp, err := scanResponse(row)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, tender.ErrNotFound
	}
	lines, err := r.listLines(ctx, id)
	if err != nil {
		return nil, err
	}
	resp.Lines = lines
	return resp, nil
}

// ListByRequest lists all responses to a request, with lines.
func (r *ResponseRepository) ListByRequest(ctx context.Context, requestID string) ([]*tender.PriceResponse, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("response repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, request_id, supplier_id, lead_id, notes, best_offer,
	created_at, updated_at
FROM price_responses
WHERE request_id = $1
ORDER BY created_at ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*tender.PriceResponse
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			result = append(result, resp)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, resp := range result {
		lines, err := r.listLines(ctx, resp.ID)
		if err != nil {
			return nil, err
		}
		resp.Lines = lines
	}
	return result, nil
}

func (r *ResponseRepository) listLines(ctx context.Context, responseID string) ([]tender.ResponseLine, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, request_line_id,
	unit_rate_p_per_kwh, standing_per_day, contract_term_years,
	capacity_per_kva, annual_usage_kwh, annual_cost,
	uplift_p_per_kwh, unit_rate_with_uplift, annual_cost_with_uplift
FROM price_response_lines
WHERE response_id = $1
ORDER BY id ASC`, responseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []tender.ResponseLine
	for rows.Next() {
		var line tender.ResponseLine
		if err := rows.Scan(
			&line.ID, &line.RequestLineID,
			&line.Quote.UnitRatePPerKWh, &line.Quote.StandingPerDay, &line.Quote.ContractTermYears,
			&line.Quote.CapacityPerKVA, &line.Quote.AnnualUsageKWh, &line.AnnualCost,
			&line.UpliftPPerKWh, &line.UnitRateWithUpliftPPerKWh, &line.AnnualCostWithUplift,
		); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResponse(row rowScanner) (*tender.PriceResponse, error) {
	var resp tender.PriceResponse
	err := row.Scan(
		&resp.ID, &resp.Name, &resp.RequestID, &resp.SupplierID, &resp.LeadID,
		&resp.Notes, &resp.BestOffer, &resp.CreatedAt, &resp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	resp.CreatedAt = resp.CreatedAt.UTC()
	resp.UpdatedAt = resp.UpdatedAt.UTC()
	return &resp, nil
}
