package jellyfish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to the Jellyfish pricing API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient constructs a Jellyfish client.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("jellyfish: empty base url")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// QuoteMeter is one meter in an outgoing quote request.
type QuoteMeter struct {
	Identifier     string  `json:"identifier"`
	MeterType      string  `json:"meter_type"`
	AnnualUsageKWh float64 `json:"annual_usage_kwh"`
}

// QuoteRequest is the outgoing quote request payload.
type QuoteRequest struct {
	Reference string       `json:"reference"`
	Meters    []QuoteMeter `json:"meters"`
}

var errNotFound = errors.New("jellyfish: not found")

// FetchQuotes posts a quote request and returns the parsed offers. The
// provider has shipped several response shapes over time, so the body is
// handed to ParseOffers rather than decoded into a fixed struct.
func (c *Client) FetchQuotes(ctx context.Context, req QuoteRequest) ([]Offer, error) {
	if len(req.Meters) == 0 {
		return nil, errors.New("jellyfish: empty meter list")
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/pricing/quotes", req, &raw); err != nil {
		return nil, err
	}
	return ParseOffers(raw)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("jellyfish: http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
