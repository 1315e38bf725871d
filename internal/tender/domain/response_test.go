package tender

import (
	"errors"
	"testing"

	"energy-broker/internal/pricing"
)

func quoteLine(rate, standing, usage float64) ResponseLine {
	line := ResponseLine{Quote: pricing.TariffQuote{
		UnitRatePPerKWh: rate,
		StandingPerDay:  standing,
		AnnualUsageKWh:  usage,
	}}
	line.Reprice()
	return line
}

func TestRepriceDerivesAnnualCosts(t *testing.T) {
	line := quoteLine(10.0, 0.50, 20000)
	if line.AnnualCost != 2182.5 {
		t.Fatalf("expected annual cost 2182.5, got %g", line.AnnualCost)
	}
	if line.AnnualCostWithUplift != line.AnnualCost {
		t.Fatalf("zero uplift must match plain cost, got %g", line.AnnualCostWithUplift)
	}
}

func TestSetUpliftRepricesLine(t *testing.T) {
	line := quoteLine(10.0, 0.50, 20000)
	if err := line.SetUplift(1.0, pricing.UpliftPolicy{MaxPPerKWh: 3.0}); err != nil {
		t.Fatalf("set uplift: %v", err)
	}
	if line.UnitRateWithUpliftPPerKWh != 11.0 {
		t.Fatalf("expected uplifted rate 11.0, got %g", line.UnitRateWithUpliftPPerKWh)
	}
	if line.AnnualCostWithUplift != 2382.5 {
		t.Fatalf("expected uplifted cost 2382.5, got %g", line.AnnualCostWithUplift)
	}
	if line.AnnualCost != 2182.5 {
		t.Fatalf("plain cost must not move, got %g", line.AnnualCost)
	}
}

func TestSetUpliftEnforcesCap(t *testing.T) {
	line := quoteLine(10.0, 0.50, 20000)
	err := line.SetUplift(3.5, pricing.UpliftPolicy{MaxPPerKWh: 3.0})
	if !errors.Is(err, pricing.ErrUpliftExceedsMax) {
		t.Fatalf("expected ErrUpliftExceedsMax, got %v", err)
	}
	if line.UpliftPPerKWh != 0 {
		t.Fatalf("rejected uplift must not be stored, got %g", line.UpliftPPerKWh)
	}
}

func TestResponseTotals(t *testing.T) {
	resp := PriceResponse{
		ID: "pr1",
		Lines: []ResponseLine{
			quoteLine(10.0, 0.50, 20000),
			quoteLine(5.0, 0.25, 45000),
		},
	}
	wantCost := 2182.5 + (5.0/100*45000 + 0.25*365)
	if got := resp.TotalAnnualCost(); got != wantCost {
		t.Fatalf("expected total cost %g, got %g", wantCost, got)
	}
	if got := resp.TotalUsageKWh(); got != 65000 {
		t.Fatalf("expected total usage 65000, got %g", got)
	}
}
