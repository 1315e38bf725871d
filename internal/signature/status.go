package signature

import (
	"strings"

	contract "energy-broker/internal/contract/domain"
)

// MapProviderStatus normalizes a provider state string onto the contract's
// sign status. Providers disagree on spelling, so matching is case
// insensitive and accepts the variants seen in the wild. Anything
// unrecognized is treated as still pending.
func MapProviderStatus(state string) contract.SignStatus {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "completed", "signed", "done":
		return contract.SignSigned
	case "refused", "rejected", "declined":
		return contract.SignRefused
	case "cancel", "cancelled", "canceled":
		return contract.SignCancelled
	default:
		return contract.SignPending
	}
}
