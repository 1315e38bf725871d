package memory

import (
	"context"
	"sort"
	"sync"

	tender "energy-broker/internal/tender/domain"
)

// RequestRepository is an in-memory price request store for demo/testing.
type RequestRepository struct {
	mu   sync.RWMutex
	data map[string]tender.PriceRequest
}

// NewRequestRepository constructs a repository.
func NewRequestRepository() *RequestRepository {
	return &RequestRepository{data: make(map[string]tender.PriceRequest)}
}

// CreateWithLines stores a request.
func (r *RequestRepository) CreateWithLines(ctx context.Context, req *tender.PriceRequest) error {
	_ = ctx
	if req == nil {
		return tender.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[req.ID] = *req
	return nil
}

// UpdateState stores a request's workflow state.
func (r *RequestRepository) UpdateState(ctx context.Context, id string, state tender.RequestState) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.data[id]
	if !ok {
		return tender.ErrNotFound
	}
	req.State = state
	r.data[id] = req
	return nil
}

// Get loads a request copy.
func (r *RequestRepository) Get(ctx context.Context, id string) (*tender.PriceRequest, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.data[id]
	if !ok {
		return nil, tender.ErrNotFound
	}
	req.Lines = append([]tender.RequestLine(nil), req.Lines...)
	return &req, nil
}

// ResponseRepository is an in-memory price response store for demo/testing.
type ResponseRepository struct {
	mu   sync.RWMutex
	data map[string]tender.PriceResponse
}

// NewResponseRepository constructs a repository.
func NewResponseRepository() *ResponseRepository {
	return &ResponseRepository{data: make(map[string]tender.PriceResponse)}
}

// CreateWithLines stores a response.
func (r *ResponseRepository) CreateWithLines(ctx context.Context, resp *tender.PriceResponse) error {
	_ = ctx
	if resp == nil {
		return tender.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[resp.ID] = *resp
	return nil
}

// UpdateLine replaces a stored line.
func (r *ResponseRepository) UpdateLine(ctx context.Context, responseID string, line tender.ResponseLine) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	resp, ok := r.data[responseID]
	if !ok {
		return tender.ErrNotFound
	}
	for i := range resp.Lines {
		if resp.Lines[i].ID == line.ID {
			resp.Lines[i] = line
			r.data[responseID] = resp
			return nil
		}
	}
	return tender.ErrNotFound
}

// MarkBestOffer flags one response of a request as the best offer.
func (r *ResponseRepository) MarkBestOffer(ctx context.Context, requestID, responseID string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[responseID]; !ok {
		return tender.ErrNotFound
	}
	for id, resp := range r.data {
		if resp.RequestID != requestID {
			continue
		}
		resp.BestOffer = id == responseID
		r.data[id] = resp
	}
	return nil
}

// Get loads a response copy.
func (r *ResponseRepository) Get(ctx context.Context, id string) (*tender.PriceResponse, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	resp, ok := r.data[id]
	if !ok {
		return nil, tender.ErrNotFound
	}
	resp.Lines = append([]tender.ResponseLine(nil), resp.Lines...)
	return &resp, nil
}

// ListByRequest lists responses to a request.
func (r *ResponseRepository) ListByRequest(ctx context.Context, requestID string) ([]*tender.PriceResponse, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*tender.PriceResponse
	for _, resp := range r.data {
		if resp.RequestID != requestID {
			continue
		}
		copied := resp
		copied.Lines = append([]tender.ResponseLine(nil), resp.Lines...)
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
