package events

import "time"

// ContractCreated signals a contract was created from a winning response.
type ContractCreated struct {
	ContractID string    `json:"contract_id"`
	ResponseID string    `json:"response_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// StatusChanged signals a lifecycle transition.
type StatusChanged struct {
	ContractID string    `json:"contract_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SignatureUpdated signals a change in the e-signature workflow.
type SignatureUpdated struct {
	ContractID string    `json:"contract_id"`
	SignStatus string    `json:"sign_status"`
	DocumentID string    `json:"document_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CommissionRecomputed signals the commission breakdown was re-derived.
type CommissionRecomputed struct {
	ContractID  string    `json:"contract_id"`
	AmountTotal float64   `json:"amount_total"`
	ToPay       float64   `json:"to_pay"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// LedgerAppended signals a commission payment was recorded.
type LedgerAppended struct {
	ContractID string    `json:"contract_id"`
	EntryID    string    `json:"entry_id"`
	Side       string    `json:"side"`
	Amount     float64   `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EndDateAlert signals a contract crossed an expiry threshold.
type EndDateAlert struct {
	ContractID    string    `json:"contract_id"`
	ThresholdDays int       `json:"threshold_days"`
	DaysUntilEnd  int       `json:"days_until_end"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// RenewalReminder signals a renewal reminder falls due today.
type RenewalReminder struct {
	ContractID    string    `json:"contract_id"`
	ThresholdDays int       `json:"threshold_days"`
	EndDate       time.Time `json:"end_date"`
	OccurredAt    time.Time `json:"occurred_at"`
}
