package signature

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

// Client talks to the e-signature provider's REST API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient constructs a signature client.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("signature: empty base url")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// CreateRequestInput describes a new signature request.
type CreateRequestInput struct {
	TemplateID string
	SignerID   string
	Reference  string
}

// RequestStatus is the provider's view of a signature request.
type RequestStatus struct {
	RequestID   string
	State       string
	CompletedAt time.Time
	// DocumentID is the newest completed PDF attachment, empty until signed.
	DocumentID string
}

var errNotFound = errors.New("signature: not found")

// ErrRequestNotFound is returned when the provider no longer knows the request.
var ErrRequestNotFound = errNotFound

// CreateRequest creates a signature request from a template, assigning the
// signer to the template's first role.
func (c *Client) CreateRequest(ctx context.Context, in CreateRequestInput) (string, error) {
	if in.TemplateID == "" || in.SignerID == "" {
		return "", errors.New("signature: template and signer are required")
	}
	body := map[string]any{
		"template_id": in.TemplateID,
		"reference":   in.Reference,
		"signers": []map[string]any{
			{"partner_id": in.SignerID, "role": "first"},
		},
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/sign/requests", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errors.New("signature: provider returned no request id")
	}
	return resp.ID, nil
}

// GetStatus fetches the current state of a signature request. When the
// request is completed, the newest completed document is reported.
func (c *Client) GetStatus(ctx context.Context, requestID string) (RequestStatus, error) {
	if requestID == "" {
		return RequestStatus{}, errors.New("signature: empty request id")
	}
	var resp struct {
		ID          string `json:"id"`
		State       string `json:"state"`
		CompletedAt string `json:"completed_at"`
		Documents   []struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
		} `json:"documents"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/sign/requests/"+requestID, nil, &resp); err != nil {
		return RequestStatus{}, err
	}

	status := RequestStatus{RequestID: resp.ID, State: resp.State}
	if resp.CompletedAt != "" {
		if at, err := time.Parse(time.RFC3339, resp.CompletedAt); err == nil {
			status.CompletedAt = at
		}
	}
	newest := time.Time{}
	for _, doc := range resp.Documents {
		at, err := time.Parse(time.RFC3339, doc.CreatedAt)
		if err != nil {
			continue
		}
		if status.DocumentID == "" || at.After(newest) {
			status.DocumentID = doc.ID
			newest = at
		}
	}
	return status, nil
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
		return fmt.Errorf("signature: http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
