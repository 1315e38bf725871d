package tender

import (
	"time"

	"energy-broker/internal/meterpoint"
)

// MeterType classifies a request line's meter.
type MeterType string

const (
	MeterHalfHourly    MeterType = "hh"
	MeterNonHalfHourly MeterType = "nhh"
	MeterGas           MeterType = "gas"
)

// Valid returns true when the meter type is known.
func (t MeterType) Valid() bool {
	switch t {
	case MeterHalfHourly, MeterNonHalfHourly, MeterGas:
		return true
	default:
		return false
	}
}

// IdentifierKind maps the meter type onto the identifier scheme it uses.
func (t MeterType) IdentifierKind() meterpoint.Kind {
	if t == MeterGas {
		return meterpoint.KindGas
	}
	return meterpoint.KindElectricity
}

// RequestState is the price request workflow state.
type RequestState string

const (
	RequestDraft RequestState = "draft"
	RequestSent  RequestState = "sent"
)

// RequestLine is one meter in a tender. The identifier is validated on
// construction; a line never carries an unvalidated identifier.
type RequestLine struct {
	ID              string
	Meter           meterpoint.MeterIdentifier
	MeterType       MeterType
	AnnualUsageKWh  float64
	CurrentSupplier string
	ContractEndDate time.Time
	SupplyAddress   string
}

// NewRequestLine validates the raw identifier and builds a line.
func NewRequestLine(id, rawIdentifier string, meterType MeterType, annualUsageKWh float64, supplyAddress string) (RequestLine, error) {
	if !meterType.Valid() {
		return RequestLine{}, ErrUnknownMeterType
	}
	meter, err := meterpoint.Validate(rawIdentifier, meterType.IdentifierKind())
	if err != nil {
		return RequestLine{}, err
	}
	return RequestLine{
		ID:             id,
		Meter:          meter,
		MeterType:      meterType,
		AnnualUsageKWh: annualUsageKWh,
		SupplyAddress:  supplyAddress,
	}, nil
}

// PriceRequest is a tender: a meter list sent to suppliers under an LOA.
type PriceRequest struct {
	ID            string
	Name          string
	LOAID         string
	CustomerID    string
	CustomerEmail string
	LeadID        string
	Suppliers     []string
	State         RequestState
	Lines         []RequestLine
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MarkSent flips the request to sent. Idempotent.
func (r *PriceRequest) MarkSent() {
	r.State = RequestSent
}

// LinesByIdentifier indexes request lines by normalized meter identifier,
// for matching quote offers back to meters.
func (r *PriceRequest) LinesByIdentifier() map[string]*RequestLine {
	index := make(map[string]*RequestLine, len(r.Lines))
	for i := range r.Lines {
		index[r.Lines[i].Meter.Core] = &r.Lines[i]
	}
	return index
}

// TotalUsageKWh sums annual usage across all lines.
func (r *PriceRequest) TotalUsageKWh() float64 {
	total := 0.0
	for _, line := range r.Lines {
		total += line.AnnualUsageKWh
	}
	return total
}
