package pricing

import (
	"errors"
	"math"
	"testing"
)

func TestAnnualCost(t *testing.T) {
	got := AnnualCost(10.0, 0.50, 20000)
	if got != 2182.5 {
		t.Fatalf("expected 2182.5, got %v", got)
	}
}

func TestAnnualCostDeterministic(t *testing.T) {
	first := AnnualCost(13.37, 0.42, 123456.789)
	for i := 0; i < 100; i++ {
		if again := AnnualCost(13.37, 0.42, 123456.789); again != first {
			t.Fatalf("iteration %d: expected %v, got %v", i, first, again)
		}
	}
}

func TestAnnualCostWithUplift(t *testing.T) {
	cost, rate := AnnualCostWithUplift(10.0, 1.5, 0.50, 20000)
	if rate != 11.5 {
		t.Fatalf("expected uplifted rate 11.5, got %v", rate)
	}
	want := 11.5/100*20000 + 0.50*365
	if cost != want {
		t.Fatalf("expected %v, got %v", want, cost)
	}
}

func TestAnnualCostPropagatesWithoutClamping(t *testing.T) {
	if got := AnnualCost(10.0, 0.50, -20000); got != -2000+182.5 {
		t.Fatalf("negative usage must propagate arithmetically, got %v", got)
	}
	if got := AnnualCost(10.0, 0.50, math.NaN()); !math.IsNaN(got) {
		t.Fatalf("NaN usage must propagate, got %v", got)
	}
}

func TestQuoteAnnualCost(t *testing.T) {
	quote := TariffQuote{UnitRatePPerKWh: 12.5, StandingPerDay: 0.30, AnnualUsageKWh: 40000}
	want := 12.5/100*40000 + 0.30*365
	if got := quote.AnnualCost(); got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	cost, rate := quote.AnnualCostWithUplift(0.5)
	if rate != 13.0 {
		t.Fatalf("expected uplifted rate 13.0, got %v", rate)
	}
	if wantUplifted := 13.0/100*40000 + 0.30*365; cost != wantUplifted {
		t.Fatalf("expected %v, got %v", wantUplifted, cost)
	}
}

func TestUpliftPolicy(t *testing.T) {
	policy := UpliftPolicy{MaxPPerKWh: 2.0}
	if err := policy.Check(2.0); err != nil {
		t.Fatalf("uplift at cap: %v", err)
	}
	if err := policy.Check(2.01); !errors.Is(err, ErrUpliftExceedsMax) {
		t.Fatalf("expected ErrUpliftExceedsMax, got %v", err)
	}
	uncapped := UpliftPolicy{}
	if err := uncapped.Check(99); err != nil {
		t.Fatalf("uncapped policy: %v", err)
	}
}
