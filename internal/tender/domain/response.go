package tender

import (
	"time"

	"energy-broker/internal/pricing"
)

// ResponseLine is one supplier offer mapped to a request line. It owns its
// tariff quote and the derived annual costs; derived fields are recomputed
// together whenever an input changes.
type ResponseLine struct {
	ID            string
	RequestLineID string
	Quote         pricing.TariffQuote

	AnnualCost float64

	// Uplift figures are broker-manager only; callers gate access by role.
	UpliftPPerKWh             float64
	UnitRateWithUpliftPPerKWh float64
	AnnualCostWithUplift      float64
}

// Reprice recomputes every derived cost figure from the current inputs.
// Deterministic: identical inputs always produce identical figures.
func (l *ResponseLine) Reprice() {
	l.AnnualCost = l.Quote.AnnualCost()
	l.AnnualCostWithUplift, l.UnitRateWithUpliftPPerKWh = l.Quote.AnnualCostWithUplift(l.UpliftPPerKWh)
}

// SetUplift applies a broker uplift, enforcing the configured cap, and
// reprices the line.
func (l *ResponseLine) SetUplift(upliftPPerKWh float64, policy pricing.UpliftPolicy) error {
	if err := policy.Check(upliftPPerKWh); err != nil {
		return err
	}
	l.UpliftPPerKWh = upliftPPerKWh
	l.Reprice()
	return nil
}

// PriceResponse is one supplier's set of offers against a price request.
type PriceResponse struct {
	ID         string
	Name       string
	RequestID  string
	SupplierID string
	LeadID     string
	Notes      string
	Lines      []ResponseLine
	BestOffer  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TotalAnnualCost sums the lines' annual costs.
func (r *PriceResponse) TotalAnnualCost() float64 {
	total := 0.0
	for _, line := range r.Lines {
		total += line.AnnualCost
	}
	return total
}

// TotalUsageKWh sums annual usage across the response's lines. Contracts read
// this at recompute time rather than caching it, since lines may change.
func (r *PriceResponse) TotalUsageKWh() float64 {
	total := 0.0
	for _, line := range r.Lines {
		total += line.Quote.AnnualUsageKWh
	}
	return total
}
