package authority

import "errors"

var (
	// ErrExpired blocks validating or using an LOA past its expiry date.
	ErrExpired = errors.New("authority: LOA expired")
	// ErrNotUsable blocks price requests without a valid, unexpired LOA.
	ErrNotUsable = errors.New("authority: LOA must be valid and not expired")
	ErrNotFound  = errors.New("authority: not found")
)
