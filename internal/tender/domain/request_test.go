package tender

import (
	"errors"
	"testing"

	"energy-broker/internal/meterpoint"
)

const validMPAN = "1200023305963"

func TestNewRequestLineValidatesIdentifier(t *testing.T) {
	line, err := NewRequestLine("l1", " "+validMPAN+" ", MeterNonHalfHourly, 20000, "1 High St")
	if err != nil {
		t.Fatalf("new line: %v", err)
	}
	if line.Meter.Core != validMPAN {
		t.Fatalf("expected normalized identifier %s, got %s", validMPAN, line.Meter.Core)
	}
	if line.Meter.Kind != meterpoint.KindElectricity {
		t.Fatalf("expected electricity identifier, got %s", line.Meter.Kind)
	}
}

func TestNewRequestLineRejectsBadChecksum(t *testing.T) {
	_, err := NewRequestLine("l1", "1200023305967", MeterHalfHourly, 20000, "")
	if !errors.Is(err, meterpoint.ErrInvalidMPAN) {
		t.Fatalf("expected ErrInvalidMPAN, got %v", err)
	}
}

func TestNewRequestLineGasUsesMPRN(t *testing.T) {
	line, err := NewRequestLine("l1", "1234567", MeterGas, 45000, "")
	if err != nil {
		t.Fatalf("new gas line: %v", err)
	}
	if line.Meter.Kind != meterpoint.KindGas {
		t.Fatalf("expected gas identifier, got %s", line.Meter.Kind)
	}
}

func TestNewRequestLineRejectsUnknownMeterType(t *testing.T) {
	_, err := NewRequestLine("l1", validMPAN, MeterType("smart"), 1000, "")
	if !errors.Is(err, ErrUnknownMeterType) {
		t.Fatalf("expected ErrUnknownMeterType, got %v", err)
	}
}

func TestLinesByIdentifierAndTotals(t *testing.T) {
	elec, err := NewRequestLine("l1", validMPAN, MeterNonHalfHourly, 20000, "")
	if err != nil {
		t.Fatalf("elec line: %v", err)
	}
	gas, err := NewRequestLine("l2", "87654321", MeterGas, 45000, "")
	if err != nil {
		t.Fatalf("gas line: %v", err)
	}
	req := PriceRequest{ID: "r1", Lines: []RequestLine{elec, gas}}

	index := req.LinesByIdentifier()
	if len(index) != 2 {
		t.Fatalf("expected 2 indexed lines, got %d", len(index))
	}
	if got := index[validMPAN]; got == nil || got.ID != "l1" {
		t.Fatalf("expected line l1 under %s, got %+v", validMPAN, got)
	}
	if got := req.TotalUsageKWh(); got != 65000 {
		t.Fatalf("expected total usage 65000, got %g", got)
	}
}

func TestMarkSentIsIdempotent(t *testing.T) {
	req := PriceRequest{ID: "r1", State: RequestDraft}
	req.MarkSent()
	req.MarkSent()
	if req.State != RequestSent {
		t.Fatalf("expected sent, got %s", req.State)
	}
}
