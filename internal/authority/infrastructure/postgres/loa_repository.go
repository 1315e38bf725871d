package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	authority "energy-broker/internal/authority/domain"
)

// LOARepository persists Letters of Authority.
type LOARepository struct {
	db *sql.DB
}

// NewLOARepository constructs a repository.
func NewLOARepository(db *sql.DB) *LOARepository {
	return &LOARepository{db: db}
}

// Create inserts an LOA.
func (r *LOARepository) Create(ctx context.Context, loa *authority.LOA) error {
	if r == nil || r.db == nil {
		return errors.New("loa repo: nil db")
	}
	if loa == nil {
		return errors.New("loa repo: nil loa")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO loas (
	id, name, customer_id, customer_email, lead_id,
	issue_date, expiry_date, status, sign_request_id, document_id,
	created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		loa.ID, loa.Name, loa.CustomerID, loa.CustomerEmail, loa.LeadID,
		loa.IssueDate.UTC(), loa.ExpiryDate.UTC(), loa.Status, loa.SignRequestID, loa.DocumentID,
		loa.CreatedAt, loa.UpdatedAt,
	)
	return err
}

// Update replaces all mutable LOA fields.
func (r *LOARepository) Update(ctx context.Context, loa *authority.LOA) error {
	if r == nil || r.db == nil {
		return errors.New("loa repo: nil db")
	}
	if loa == nil {
		return errors.New("loa repo: nil loa")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE loas SET
	name = $2, customer_id = $3, customer_email = $4, lead_id = $5,
	issue_date = $6, expiry_date = $7, status = $8,
	sign_request_id = $9, document_id = $10, updated_at = $11
WHERE id = $1`,
		loa.ID, loa.Name, loa.CustomerID, loa.CustomerEmail, loa.LeadID,
		loa.IssueDate.UTC(), loa.ExpiryDate.UTC(), loa.Status,
		loa.SignRequestID, loa.DocumentID, loa.UpdatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return authority.ErrNotFound
	}
	return nil
}

// Get loads an LOA by id.
func (r *LOARepository) Get(ctx context.Context, id string) (*authority.LOA, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("loa repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, customer_id, customer_email, lead_id,
	issue_date, expiry_date, status, sign_request_id, document_id,
	created_at, updated_at
FROM loas
WHERE id = $1
LIMIT 1`, id)
	loa, err := scanLOA(row)
	if err != nil {
		return nil, err
	}
	if loa == nil {
		return nil, authority.ErrNotFound
	}
	return loa, nil
}

// ListDueForExpiry lists LOAs past their expiry date but not yet expired.
func (r *LOARepository) ListDueForExpiry(ctx context.Context, today time.Time) ([]*authority.LOA, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("loa repo: nil db")
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, customer_id, customer_email, lead_id,
	issue_date, expiry_date, status, sign_request_id, document_id,
	created_at, updated_at
FROM loas
WHERE status <> 'expired' AND expiry_date < $1
ORDER BY expiry_date ASC`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*authority.LOA
	for rows.Next() {
		loa, err := scanLOA(rows)
		if err != nil {
			return nil, err
		}
		if loa != nil {
			result = append(result, loa)
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

func scanLOA(row rowScanner) (*authority.LOA, error) {
	var loa authority.LOA
	err := row.Scan(
		&loa.ID, &loa.Name, &loa.CustomerID, &loa.CustomerEmail, &loa.LeadID,
		&loa.IssueDate, &loa.ExpiryDate, &loa.Status, &loa.SignRequestID, &loa.DocumentID,
		&loa.CreatedAt, &loa.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	loa.IssueDate = loa.IssueDate.UTC()
	loa.ExpiryDate = loa.ExpiryDate.UTC()
	loa.CreatedAt = loa.CreatedAt.UTC()
	loa.UpdatedAt = loa.UpdatedAt.UTC()
	return &loa, nil
}
