package pricing

// TariffQuote holds a supplier's quoted tariff for one meter, with the
// annual usage the quote applies to. Rates are pence per kWh, standing and
// capacity charges are currency units per day / per kVA.
type TariffQuote struct {
	UnitRatePPerKWh   float64
	StandingPerDay    float64
	ContractTermYears int
	CapacityPerKVA    float64
	AnnualUsageKWh    float64
}

// AnnualCost converts a unit rate, standing charge and annual usage into a
// whole-currency annual cost: rate/100 x usage + standing x 365.
func AnnualCost(unitRatePPerKWh, standingPerDay, annualUsageKWh float64) float64 {
	return unitRatePPerKWh/100*annualUsageKWh + standingPerDay*365
}

// AnnualCostWithUplift applies the broker uplift to the unit rate before the
// standard cost formula. It also returns the uplifted unit rate for display.
func AnnualCostWithUplift(unitRatePPerKWh, upliftPPerKWh, standingPerDay, annualUsageKWh float64) (cost, upliftedRate float64) {
	upliftedRate = unitRatePPerKWh + upliftPPerKWh
	return AnnualCost(upliftedRate, standingPerDay, annualUsageKWh), upliftedRate
}

// AnnualCost prices the quote at its own usage.
func (q TariffQuote) AnnualCost() float64 {
	return AnnualCost(q.UnitRatePPerKWh, q.StandingPerDay, q.AnnualUsageKWh)
}

// AnnualCostWithUplift prices the quote with a broker uplift applied.
func (q TariffQuote) AnnualCostWithUplift(upliftPPerKWh float64) (cost, upliftedRate float64) {
	return AnnualCostWithUplift(q.UnitRatePPerKWh, upliftPPerKWh, q.StandingPerDay, q.AnnualUsageKWh)
}
