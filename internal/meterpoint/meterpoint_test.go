package meterpoint

import (
	"errors"
	"strconv"
	"testing"
)

// 120002330596 weighted by 3,7,1 repeating sums to 133, so the check digit is 3.
const validMPAN = "1200023305963"

func TestValidateMPANAcceptsValidCore(t *testing.T) {
	id, err := Validate(validMPAN, KindElectricity)
	if err != nil {
		t.Fatalf("validate mpan: %v", err)
	}
	if id.Core != validMPAN {
		t.Fatalf("unexpected core %q", id.Core)
	}
	if id.Kind != KindElectricity {
		t.Fatalf("unexpected kind %q", id.Kind)
	}
}

func TestValidateMPANStripsWhitespace(t *testing.T) {
	id, err := Validate(" 12 0002 3305 963 ", KindElectricity)
	if err != nil {
		t.Fatalf("validate mpan with spaces: %v", err)
	}
	if id.Core != validMPAN {
		t.Fatalf("expected normalized core, got %q", id.Core)
	}
}

func TestValidateMPANRejectsSingleDigitFlips(t *testing.T) {
	// Flipping any single digit of the weighted prefix breaks the checksum
	// unless the weight times the delta is a multiple of 10; with weights 3,
	// 7 and 1 and a delta of 1 that never happens.
	for i := 0; i < 12; i++ {
		flipped := []byte(validMPAN)
		flipped[i] = '0' + byte((int(flipped[i]-'0')+1)%10)
		if _, err := Validate(string(flipped), KindElectricity); !errors.Is(err, ErrInvalidMPAN) {
			t.Fatalf("digit %d flip: expected ErrInvalidMPAN, got %v", i, err)
		}
	}
}

func TestValidateMPANRejectsWrongCheckDigit(t *testing.T) {
	for digit := 0; digit <= 9; digit++ {
		raw := validMPAN[:12] + strconv.Itoa(digit)
		_, err := Validate(raw, KindElectricity)
		if digit == 3 {
			if err != nil {
				t.Fatalf("check digit 3: %v", err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidMPAN) {
			t.Fatalf("check digit %d: expected ErrInvalidMPAN, got %v", digit, err)
		}
	}
}

func TestValidateMPANRejectsLengthAndNonDigits(t *testing.T) {
	for _, raw := range []string{"", "120002330596", "12000233059631", "12000233O5963"} {
		if _, err := Validate(raw, KindElectricity); !errors.Is(err, ErrInvalidMPAN) {
			t.Fatalf("raw %q: expected ErrInvalidMPAN, got %v", raw, err)
		}
	}
}

func TestValidateMPRNBounds(t *testing.T) {
	for length := 6; length <= 11; length++ {
		raw := ""
		for i := 0; i < length; i++ {
			raw += strconv.Itoa(i % 10)
		}
		if _, err := Validate(raw, KindGas); err != nil {
			t.Fatalf("length %d: %v", length, err)
		}
	}
	for _, raw := range []string{"12345", "123456789012", "12A456"} {
		if _, err := Validate(raw, KindGas); !errors.Is(err, ErrInvalidMPRN) {
			t.Fatalf("raw %q: expected ErrInvalidMPRN, got %v", raw, err)
		}
	}
}

func TestValidateUnknownKind(t *testing.T) {
	if _, err := Validate(validMPAN, Kind("water")); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}
