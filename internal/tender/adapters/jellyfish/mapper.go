package jellyfish

import (
	"encoding/json"
	"errors"

	"energy-broker/internal/meterpoint"
	"energy-broker/internal/pricing"
	tender "energy-broker/internal/tender/domain"
)

// Offer is one supplier offer extracted from a quote response, already
// normalized to the fields the rest of the system uses.
type Offer struct {
	MeterIdentifier string
	SupplierName    string
	UnitRatePPerKWh float64
	StandingPerDay  float64
	TermYears       int
	CapacityPerKVA  float64
}

// ErrUnknownShape means the response body matched none of the known shapes.
var ErrUnknownShape = errors.New("jellyfish: unrecognized response shape")

// envelopeKeys are tried in order; the first present key wins even if a
// later key also exists.
var envelopeKeys = []string{"offers", "quotes", "results"}

// ParseOffers extracts offers from a quote response. The provider has used
// an object keyed by "offers", "quotes" or "results", and a bare top-level
// list; all are accepted. Individual offers that are missing an identifier
// or a unit rate are skipped rather than failing the whole response.
func ParseOffers(payload []byte) ([]Offer, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err == nil {
		for _, key := range envelopeKeys {
			if raw, ok := envelope[key]; ok {
				return decodeOfferList(raw)
			}
		}
		return nil, ErrUnknownShape
	}
	var probe []json.RawMessage
	if err := json.Unmarshal(payload, &probe); err == nil {
		return decodeOfferList(payload)
	}
	return nil, ErrUnknownShape
}

func decodeOfferList(raw json.RawMessage) ([]Offer, error) {
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, ErrUnknownShape
	}
	offers := make([]Offer, 0, len(items))
	for _, item := range items {
		offer, ok := decodeOffer(item)
		if !ok {
			continue
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

func decodeOffer(item map[string]any) (Offer, bool) {
	identifier, ok := pickString(item, "mpan", "mprn", "meter_identifier", "identifier")
	if !ok {
		return Offer{}, false
	}
	rate, ok := pickFloat(item, "unit_rate_p_per_kwh", "unit_rate_ppkwh", "unit_rate")
	if !ok {
		return Offer{}, false
	}
	standing, _ := pickFloat(item, "standing_charge_gbp_per_day", "standing_charge_per_day", "standing")
	capacity, _ := pickFloat(item, "capacity_charge_per_kva", "capacity_charge")
	supplier, _ := pickString(item, "supplier", "supplier_name")

	termYears := 0
	if years, ok := pickFloat(item, "term_years"); ok {
		termYears = int(years)
	} else if months, ok := pickFloat(item, "term_months"); ok {
		termYears = int(months) / 12
	}

	return Offer{
		MeterIdentifier: meterpoint.Normalize(identifier),
		SupplierName:    supplier,
		UnitRatePPerKWh: rate,
		StandingPerDay:  standing,
		TermYears:       termYears,
		CapacityPerKVA:  capacity,
	}, true
}

func pickString(item map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := item[key].(string); ok && value != "" {
			return value, true
		}
	}
	return "", false
}

func pickFloat(item map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if value, ok := item[key].(float64); ok {
			return value, true
		}
	}
	return 0, false
}

// MapOffers matches offers against a request's meters and builds priced
// response lines. Offers whose identifier matches no request line are
// dropped; the skipped count lets callers record how lossy the mapping was.
// A response with zero matched lines is still a valid outcome.
func MapOffers(req *tender.PriceRequest, offers []Offer) (lines []tender.ResponseLine, skipped int) {
	index := req.LinesByIdentifier()
	lines = make([]tender.ResponseLine, 0, len(offers))
	for _, offer := range offers {
		reqLine, ok := index[offer.MeterIdentifier]
		if !ok {
			skipped++
			continue
		}
		line := tender.ResponseLine{
			RequestLineID: reqLine.ID,
			Quote: pricing.TariffQuote{
				UnitRatePPerKWh:   offer.UnitRatePPerKWh,
				StandingPerDay:    offer.StandingPerDay,
				ContractTermYears: offer.TermYears,
				CapacityPerKVA:    offer.CapacityPerKVA,
				AnnualUsageKWh:    reqLine.AnnualUsageKWh,
			},
		}
		line.Reprice()
		lines = append(lines, line)
	}
	return lines, skipped
}
