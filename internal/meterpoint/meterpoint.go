package meterpoint

import (
	"errors"
	"strings"
	"unicode"
)

// Kind distinguishes electricity MPANs from gas MPRNs.
type Kind string

const (
	KindElectricity Kind = "electricity"
	KindGas         Kind = "gas"
)

// ErrInvalidMPAN is returned for a malformed electricity meter point number.
var ErrInvalidMPAN = errors.New("meterpoint: invalid MPAN")

// ErrInvalidMPRN is returned for a malformed gas meter point number.
var ErrInvalidMPRN = errors.New("meterpoint: invalid MPRN")

// ErrUnknownKind is returned for an unsupported identifier kind.
var ErrUnknownKind = errors.New("meterpoint: unknown identifier kind")

// MeterIdentifier is a validated, normalized UK meter point identifier.
type MeterIdentifier struct {
	Core string
	Kind Kind
}

// String returns the normalized digit string.
func (m MeterIdentifier) String() string {
	return m.Core
}

// Valid returns true when kind is supported.
func (k Kind) Valid() bool {
	switch k {
	case KindElectricity, KindGas:
		return true
	default:
		return false
	}
}

// MPAN check digit weights, repeating over the first 12 digits.
var mpanWeights = [3]int{3, 7, 1}

// Normalize strips all whitespace from a raw identifier.
func Normalize(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// Validate normalizes and validates a raw meter identifier.
//
// Electricity identifiers must be a 13-digit MPAN core whose 13th digit equals
// the weighted sum of the first 12 digits (weights 3,7,1 repeating) mod 10.
// Gas identifiers must be 6 to 11 digits; MPRNs carry no check digit.
func Validate(raw string, kind Kind) (MeterIdentifier, error) {
	core := Normalize(raw)
	switch kind {
	case KindElectricity:
		if !allDigits(core) || len(core) != 13 {
			return MeterIdentifier{}, ErrInvalidMPAN
		}
		if checkDigit(core) != int(core[12]-'0') {
			return MeterIdentifier{}, ErrInvalidMPAN
		}
		return MeterIdentifier{Core: core, Kind: KindElectricity}, nil
	case KindGas:
		if !allDigits(core) || len(core) < 6 || len(core) > 11 {
			return MeterIdentifier{}, ErrInvalidMPRN
		}
		return MeterIdentifier{Core: core, Kind: KindGas}, nil
	default:
		return MeterIdentifier{}, ErrUnknownKind
	}
}

func checkDigit(core string) int {
	total := 0
	for i := 0; i < 12; i++ {
		total += int(core[i]-'0') * mpanWeights[i%3]
	}
	return total % 10
}

func allDigits(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
