package postgres

import (
	"context"
	"database/sql"
	"errors"

	commission "energy-broker/internal/commission/domain"
)

// LedgerRepository persists commission ledger entries. Rows are append only;
// there is no update or delete path.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository constructs a repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append inserts a ledger entry.
func (r *LedgerRepository) Append(ctx context.Context, entry commission.LedgerEntry) error {
	if r == nil || r.db == nil {
		return errors.New("ledger repo: nil db")
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO commission_ledger (
	id, contract_id, side, entry_date, amount, note
) VALUES ($1,$2,$3,$4,$5,$6)`,
		entry.ID, entry.ContractID, entry.Side, entry.Date.UTC(), entry.Amount, entry.Note,
	)
	return err
}

// ListByContract loads a contract's ledger in entry order.
func (r *LedgerRepository) ListByContract(ctx context.Context, contractID string) (commission.Ledger, error) {
	if r == nil || r.db == nil {
		return commission.Ledger{}, errors.New("ledger repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, contract_id, side, entry_date, amount, note
FROM commission_ledger
WHERE contract_id = $1
ORDER BY entry_date ASC, id ASC`, contractID)
	if err != nil {
		return commission.Ledger{}, err
	}
	defer rows.Close()

	ledger := commission.NewLedger(nil)
	for rows.Next() {
		var entry commission.LedgerEntry
		if err := rows.Scan(&entry.ID, &entry.ContractID, &entry.Side, &entry.Date, &entry.Amount, &entry.Note); err != nil {
			return commission.Ledger{}, err
		}
		entry.Date = entry.Date.UTC()
		ledger, err = ledger.Append(entry)
		if err != nil {
			return commission.Ledger{}, err
		}
	}
	if err := rows.Err(); err != nil {
		return commission.Ledger{}, err
	}
	return ledger, nil
}
