package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"energy-broker/internal/meterpoint"
	tender "energy-broker/internal/tender/domain"
)

// RequestRepository persists price requests and their meter lines.
type RequestRepository struct {
	db *sql.DB
}

// NewRequestRepository constructs a repository.
func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// CreateWithLines inserts a request and its lines in one transaction.
func (r *RequestRepository) CreateWithLines(ctx context.Context, req *tender.PriceRequest) error {
	if r == nil || r.db == nil {
		return errors.New("request repo: nil db")
	}
	if req == nil {
		return errors.New("request repo: nil request")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO price_requests (
	id, name, loa_id, customer_id, customer_email, lead_id,
	suppliers, state, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		req.ID, req.Name, req.LOAID, req.CustomerID, req.CustomerEmail, req.LeadID,
		joinSuppliers(req.Suppliers), req.State, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, line := range req.Lines {
		_, err := tx.ExecContext(ctx, `
INSERT INTO price_request_lines (
	id, request_id, meter_identifier, meter_kind, meter_type,
	annual_usage_kwh, current_supplier, contract_end_date, supply_address
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			line.ID, req.ID, line.Meter.Core, line.Meter.Kind, line.MeterType,
			line.AnnualUsageKWh, line.CurrentSupplier, nullTime(line.ContractEndDate), line.SupplyAddress,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// UpdateState stores a request's workflow state.
func (r *RequestRepository) UpdateState(ctx context.Context, id string, state tender.RequestState) error {
	if r == nil || r.db == nil {
		return errors.New("request repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE price_requests SET state = $2, updated_at = NOW()
WHERE id = $1`, id, state)
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

// Get loads a request with its lines.
func (r *RequestRepository) Get(ctx context.Context, id string) (*tender.PriceRequest, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("request repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, loa_id, customer_id, customer_email, lead_id,
	suppliers, state, created_at, updated_at
FROM price_requests
WHERE id = $1
LIMIT 1`, id)

	var req tender.PriceRequest
	var suppliers string
	err := row.Scan(
		&req.ID, &req.Name, &req.LOAID, &req.CustomerID, &req.CustomerEmail, &req.LeadID,
		&suppliers, &req.State, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tender.ErrNotFound
		}
		return nil, err
	}
	req.Suppliers = splitSuppliers(suppliers)
	req.CreatedAt = req.CreatedAt.UTC()
	req.UpdatedAt = req.UpdatedAt.UTC()

	lines, err := r.listLines(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Lines = lines
	return &req, nil
}

func (r *RequestRepository) listLines(ctx context.Context, requestID string) ([]tender.RequestLine, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, meter_identifier, meter_kind, meter_type,
	annual_usage_kwh, current_supplier, contract_end_date, supply_address
FROM price_request_lines
WHERE request_id = $1
ORDER BY id ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []tender.RequestLine
	for rows.Next() {
		var line tender.RequestLine
		var kind string
		var endDate sql.NullTime
		if err := rows.Scan(
			&line.ID, &line.Meter.Core, &kind, &line.MeterType,
			&line.AnnualUsageKWh, &line.CurrentSupplier, &endDate, &line.SupplyAddress,
		); err != nil {
			return nil, err
		}
		line.Meter.Kind = meterpoint.Kind(kind)
		if endDate.Valid {
			line.ContractEndDate = endDate.Time.UTC()
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func joinSuppliers(suppliers []string) string {
	return strings.Join(suppliers, ",")
}

func splitSuppliers(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
