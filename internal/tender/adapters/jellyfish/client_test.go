package jellyfish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchQuotesSendsAuthAndParses(t *testing.T) {
	var gotAuth string
	var gotReq QuoteRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/pricing/quotes" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"offers":[{"mpan":"1200023305963","unit_rate_p_per_kwh":10.0,"standing_charge_gbp_per_day":0.5,"term_years":2,"supplier":"EDF"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "secret")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	offers, err := client.FetchQuotes(context.Background(), QuoteRequest{
		Reference: "r1",
		Meters:    []QuoteMeter{{Identifier: "1200023305963", MeterType: "nhh", AnnualUsageKWh: 20000}},
	})
	if err != nil {
		t.Fatalf("fetch quotes: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotReq.Reference != "r1" || len(gotReq.Meters) != 1 {
		t.Fatalf("unexpected request payload %+v", gotReq)
	}
	if len(offers) != 1 || offers[0].SupplierName != "EDF" {
		t.Fatalf("unexpected offers %+v", offers)
	}
}

func TestFetchQuotesRejectsEmptyMeterList(t *testing.T) {
	client, err := NewClient("http://localhost:0", "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.FetchQuotes(context.Background(), QuoteRequest{}); err == nil {
		t.Fatal("expected an error for an empty meter list")
	}
}

func TestFetchQuotesSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.FetchQuotes(context.Background(), QuoteRequest{
		Meters: []QuoteMeter{{Identifier: "1"}},
	})
	if err == nil {
		t.Fatal("expected an error for a 502 response")
	}
}
