package commission

// Inputs carries everything the derivation chain reads. UpliftPPerKWh is the
// contract-level uplift, distinct from any per-line quote uplift.
type Inputs struct {
	TotalUsageKWh float64
	UpliftPPerKWh float64
	Rule          *Rule
	Ledger        Ledger
}

// Breakdown is the derived commission state for a contract. All fields are
// recomputed together; a partially updated breakdown is never valid.
type Breakdown struct {
	Base               float64
	SupplierCommission float64
	FullCommission     float64
	FirstPayment       float64
	AmountTotal        float64
	ToPay              float64
}

// Derive runs the full derivation chain in dependency order.
//
// Fallbacks are part of the contract, not error paths: a missing rule or a
// zero supplier percent passes the whole uplift value through as supplier
// commission, a missing or zero broker split passes supplier commission
// through as full commission, and an empty supplier-side ledger leaves the
// full commission as the expected total. ToPay may go negative when the
// broker has been paid ahead of the current supplier commission; it is
// surfaced as-is.
func Derive(in Inputs) Breakdown {
	b := Breakdown{}
	b.Base = in.TotalUsageKWh * in.UpliftPPerKWh / 100

	b.SupplierCommission = b.Base
	if in.Rule != nil && in.Rule.SupplierPercent != 0 {
		b.SupplierCommission = b.Base * in.Rule.SupplierPercent / 100
	}

	b.FullCommission = b.SupplierCommission
	if in.Rule != nil && in.Rule.BrokerSplitPercent != 0 {
		b.FullCommission = b.SupplierCommission * in.Rule.BrokerSplitPercent / 100
	}

	if in.Rule != nil && in.Rule.UpfrontPercent != nil {
		b.FirstPayment = b.FullCommission * *in.Rule.UpfrontPercent / 100
	}

	return reconcile(b, in.Ledger)
}

// Reconcile re-runs only the ledger-dependent tail of the chain. Appending a
// ledger entry never changes the earlier fields, so this is a shortcut with
// the same result as a full Derive.
func (b Breakdown) Reconcile(ledger Ledger) Breakdown {
	return reconcile(b, ledger)
}

func reconcile(b Breakdown, ledger Ledger) Breakdown {
	received, reconciled := ledger.SupplierReceived()
	if reconciled {
		b.AmountTotal = received
	} else {
		b.AmountTotal = b.FullCommission
	}

	paid, _ := ledger.BrokerPaid()
	b.ToPay = b.SupplierCommission - b.FirstPayment - paid
	return b
}
