package events

import "time"

// LOACreated signals a new Letter of Authority was drafted.
type LOACreated struct {
	LOAID      string    `json:"loa_id"`
	CustomerID string    `json:"customer_id"`
	ExpiryDate time.Time `json:"expiry_date"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LOAValidated signals a signed Letter of Authority was promoted to valid.
type LOAValidated struct {
	LOAID      string    `json:"loa_id"`
	CustomerID string    `json:"customer_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LOAExpired signals a Letter of Authority lapsed.
type LOAExpired struct {
	LOAID      string    `json:"loa_id"`
	CustomerID string    `json:"customer_id"`
	ExpiryDate time.Time `json:"expiry_date"`
	OccurredAt time.Time `json:"occurred_at"`
}
