package signature

import (
	"testing"

	contract "energy-broker/internal/contract/domain"
)

func TestMapProviderStatus(t *testing.T) {
	cases := []struct {
		state string
		want  contract.SignStatus
	}{
		{"completed", contract.SignSigned},
		{"SIGNED", contract.SignSigned},
		{"done", contract.SignSigned},
		{"refused", contract.SignRefused},
		{"Rejected", contract.SignRefused},
		{"declined", contract.SignRefused},
		{"cancel", contract.SignCancelled},
		{"cancelled", contract.SignCancelled},
		{"canceled", contract.SignCancelled},
		{" sent ", contract.SignPending},
		{"awaiting_signature", contract.SignPending},
		{"", contract.SignPending},
	}
	for _, tc := range cases {
		if got := MapProviderStatus(tc.state); got != tc.want {
			t.Errorf("state %q: expected %s, got %s", tc.state, tc.want, got)
		}
	}
}
