package authority

import "time"

// Status is the Letter of Authority workflow state.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusSigned  Status = "signed"
	StatusValid   Status = "valid"
	StatusExpired Status = "expired"
)

// Valid returns true when status is a known LOA state.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusSigned, StatusValid, StatusExpired:
		return true
	default:
		return false
	}
}

// ValidityMonths is how long a signed LOA authorizes the broker.
const ValidityMonths = 12

// LOA is a customer's Letter of Authority: the authorization allowing the
// broker to request quotes on the customer's behalf.
type LOA struct {
	ID            string
	Name          string
	CustomerID    string
	CustomerEmail string
	LeadID        string
	IssueDate     time.Time
	ExpiryDate    time.Time
	Status        Status
	SignRequestID string
	DocumentID    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewLOA creates a draft LOA; the expiry date derives from the issue date.
func NewLOA(id, customerID string, issueDate time.Time) *LOA {
	return &LOA{
		ID:         id,
		CustomerID: customerID,
		IssueDate:  issueDate,
		ExpiryDate: ExpiryFromIssue(issueDate),
		Status:     StatusDraft,
	}
}

// ExpiryFromIssue derives the expiry date: twelve months after issue.
func ExpiryFromIssue(issueDate time.Time) time.Time {
	if issueDate.IsZero() {
		return time.Time{}
	}
	return issueDate.AddDate(0, ValidityMonths, 0)
}

// Expired reports whether the LOA is past its expiry date.
func (l *LOA) Expired(today time.Time) bool {
	if l.ExpiryDate.IsZero() {
		return false
	}
	return l.ExpiryDate.Before(dateOnly(today))
}

// MarkSent records that the LOA went out for signing.
func (l *LOA) MarkSent() {
	l.Status = StatusSent
}

// MarkSigned records the customer's signature.
func (l *LOA) MarkSigned() {
	l.Status = StatusSigned
}

// Validate promotes the LOA to valid. An expired LOA cannot be validated.
func (l *LOA) Validate(today time.Time) error {
	if l.Expired(today) {
		return ErrExpired
	}
	l.Status = StatusValid
	return nil
}

// UsableFor reports whether the LOA authorizes sending a price request today.
func (l *LOA) UsableFor(today time.Time) bool {
	return l.Status == StatusValid && !l.Expired(today)
}

// ExpireIfDue flips an overdue LOA to expired, returning true on change.
// Re-running the sweep on the same day changes nothing.
func (l *LOA) ExpireIfDue(today time.Time) bool {
	if l.Status == StatusExpired || !l.Expired(today) {
		return false
	}
	l.Status = StatusExpired
	return true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
