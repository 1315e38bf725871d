package contract

import "errors"

var (
	ErrUnknownStatus     = errors.New("contract: unknown status")
	ErrInvalidTransition = errors.New("contract: invalid transition")
	ErrNotFound          = errors.New("contract: not found")
	ErrNilContract       = errors.New("contract: nil contract")
)
