package contract

import (
	"time"

	commission "energy-broker/internal/commission/domain"
)

// Status is the contract lifecycle state.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusDocPending       Status = "doc_pending"
	StatusSaleAgreed       Status = "sale_agreed"
	StatusConfirmed        Status = "confirmed"
	StatusAccepted         Status = "accepted"
	StatusLive             Status = "live"
	StatusComplete         Status = "complete"
	StatusPaymentConfirmed Status = "payment_confirmed"
	StatusQuery            Status = "query"
	StatusCOTCancelled     Status = "cot_cancelled"
	StatusCancelled        Status = "cancelled"
)

// Valid returns true when status is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusDocPending, StatusSaleAgreed, StatusConfirmed,
		StatusAccepted, StatusLive, StatusComplete, StatusPaymentConfirmed,
		StatusQuery, StatusCOTCancelled, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal returns true when no transition leads out of the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusComplete, StatusCancelled, StatusCOTCancelled:
		return true
	default:
		return false
	}
}

// SignStatus tracks the external e-signature workflow, independently of the
// lifecycle state.
type SignStatus string

const (
	SignDraft     SignStatus = "draft"
	SignPending   SignStatus = "pending"
	SignSigned    SignStatus = "signed"
	SignRefused   SignStatus = "refused"
	SignCancelled SignStatus = "cancelled"
)

// Valid returns true when the signature status is known.
func (s SignStatus) Valid() bool {
	switch s {
	case SignDraft, SignPending, SignSigned, SignRefused, SignCancelled:
		return true
	default:
		return false
	}
}

// Type is the supply type covered by a contract.
type Type string

const (
	TypeElectricity Type = "electricity"
	TypeGas         Type = "gas"
	TypeDual        Type = "dual"
)

// Contract links a customer, the chosen supplier, the winning price response
// and a commission rule, and carries the derived commission breakdown.
//
// ResponseID is a weak reference: the response's lines may change after the
// contract is created, so usage is always re-read at recompute time rather
// than assumed stable.
type Contract struct {
	ID         string
	Name       string
	CustomerID string
	SupplierID string
	LeadID     string
	LOAID      string

	Type            Type
	UnitRatePPerKWh float64
	StandingPerDay  float64
	StartDate       time.Time
	EndDate         time.Time

	RequestID  string
	ResponseID string

	UpliftPPerKWh float64
	Rule          *commission.Rule
	Commission    commission.Breakdown

	Status     Status
	SignStatus SignStatus

	SignTemplateID  string
	SignRequestID   string
	SignerID        string
	SignCompletedAt time.Time
	DocumentID      string

	// AlertThreshold is the tightest expiry threshold (in days) already
	// fired for this contract; zero means no alert yet.
	AlertThreshold int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AttachRule replaces the commission rule. The previous breakdown is
// invalidated; callers must recompute before reading commission figures.
func (c *Contract) AttachRule(rule *commission.Rule) {
	c.Rule = rule
	c.Commission = commission.Breakdown{}
}

// Recompute derives the full commission breakdown from current usage and
// ledger state. All derived fields are replaced together.
func (c *Contract) Recompute(totalUsageKWh float64, ledger commission.Ledger) {
	c.Commission = commission.Derive(commission.Inputs{
		TotalUsageKWh: totalUsageKWh,
		UpliftPPerKWh: c.UpliftPPerKWh,
		Rule:          c.Rule,
		Ledger:        ledger,
	})
}

// Reconcile re-runs only the ledger-dependent commission fields after a
// ledger append.
func (c *Contract) Reconcile(ledger commission.Ledger) {
	c.Commission = c.Commission.Reconcile(ledger)
}

// Signer returns the effective signer: the explicit signer when set, else the
// contract counterparty.
func (c *Contract) Signer() string {
	if c.SignerID != "" {
		return c.SignerID
	}
	return c.CustomerID
}

// CanSendForSignature reports whether a signature request can be created.
// Both a signing template and a signer are required.
func (c *Contract) CanSendForSignature() bool {
	return c.SignTemplateID != "" && c.Signer() != ""
}

// MarkSignaturePending records the created provider request.
func (c *Contract) MarkSignaturePending(requestID string) {
	c.SignRequestID = requestID
	c.SignStatus = SignPending
}
