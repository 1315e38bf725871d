package tender

import "errors"

var (
	ErrUnknownMeterType = errors.New("tender: unknown meter type")
	ErrNotFound         = errors.New("tender: not found")
	// ErrCustomerEmailRequired blocks finalizing a comparison without a
	// customer email to send it to.
	ErrCustomerEmailRequired = errors.New("tender: customer email is required")
	// ErrNoSuppliers blocks sending a tender with an empty supplier list.
	ErrNoSuppliers = errors.New("tender: at least one supplier is required")
)
