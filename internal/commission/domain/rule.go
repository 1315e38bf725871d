package commission

import (
	"errors"
	"fmt"
)

// ErrPercentOutOfRange marks a commission rule with a percentage outside
// [0,100]. Rules come from persisted configuration; an out-of-range value is
// a configuration error, not a computation input to silently clamp.
var ErrPercentOutOfRange = errors.New("commission: percentage out of range")

// Rule configures how the uplift-derived base is split between supplier,
// broker and upfront payment.
//
// UpfrontPercent is a pointer because zero is a valid value distinct from
// unset: a rule with upfront 0% means "no upfront payment", a rule without an
// upfront percentage leaves the first payment underived.
type Rule struct {
	ID                 string
	Name               string
	SupplierID         string
	DurationYears      int
	SupplierPercent    float64
	BrokerSplitPercent float64
	UpfrontPercent     *float64
}

// Validate reports out-of-range percentages.
func (r Rule) Validate() error {
	if r.SupplierPercent < 0 || r.SupplierPercent > 100 {
		return fmt.Errorf("%w: supplier_percent %.4g", ErrPercentOutOfRange, r.SupplierPercent)
	}
	if r.BrokerSplitPercent < 0 || r.BrokerSplitPercent > 100 {
		return fmt.Errorf("%w: broker_split_percent %.4g", ErrPercentOutOfRange, r.BrokerSplitPercent)
	}
	if r.UpfrontPercent != nil && (*r.UpfrontPercent < 0 || *r.UpfrontPercent > 100) {
		return fmt.Errorf("%w: upfront_percent %.4g", ErrPercentOutOfRange, *r.UpfrontPercent)
	}
	return nil
}

// Upfront returns a pointer to the given upfront percentage, for rule literals.
func Upfront(percent float64) *float64 {
	return &percent
}
