package notify

import "context"

// RenewalMessage represents an expiry notification payload.
type RenewalMessage struct {
	ContractID    string `json:"contract_id"`
	ContractName  string `json:"contract_name,omitempty"`
	ThresholdDays int    `json:"threshold_days"`
	DaysUntilEnd  int    `json:"days_until_end"`
	EndDate       string `json:"end_date,omitempty"`
	Kind          string `json:"kind"`
}

// Notifier sends renewal notifications.
type Notifier interface {
	Notify(ctx context.Context, msg RenewalMessage) error
}
