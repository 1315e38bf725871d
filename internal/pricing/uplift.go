package pricing

import (
	"errors"
	"fmt"
)

// ErrUpliftExceedsMax is returned when an uplift is above the configured cap.
var ErrUpliftExceedsMax = errors.New("pricing: uplift exceeds maximum allowed")

// UpliftPolicy caps the broker uplift. The cap is supplied explicitly by the
// caller; a zero MaxPPerKWh disables the cap.
type UpliftPolicy struct {
	MaxPPerKWh float64
}

// Check validates an uplift against the policy.
func (p UpliftPolicy) Check(upliftPPerKWh float64) error {
	if p.MaxPPerKWh != 0 && upliftPPerKWh > p.MaxPPerKWh {
		return fmt.Errorf("%w (%.4g p/kWh)", ErrUpliftExceedsMax, p.MaxPPerKWh)
	}
	return nil
}
