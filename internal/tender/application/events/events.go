package events

import "time"

// RequestSent signals a tender went out to suppliers.
type RequestSent struct {
	RequestID  string    `json:"request_id"`
	LOAID      string    `json:"loa_id"`
	Suppliers  []string  `json:"suppliers"`
	OccurredAt time.Time `json:"occurred_at"`
}

// QuotesImported signals provider offers were mapped into a response.
type QuotesImported struct {
	RequestID  string    `json:"request_id"`
	ResponseID string    `json:"response_id"`
	SupplierID string    `json:"supplier_id"`
	Mapped     int       `json:"mapped"`
	Skipped    int       `json:"skipped"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ComparisonFinalized signals a comparison is ready to go to the customer.
type ComparisonFinalized struct {
	RequestID     string    `json:"request_id"`
	ResponseID    string    `json:"response_id"`
	CustomerEmail string    `json:"customer_email"`
	OccurredAt    time.Time `json:"occurred_at"`
}
