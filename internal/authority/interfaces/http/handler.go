package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"energy-broker/internal/audit"
	"energy-broker/internal/auth"
	authorityapp "energy-broker/internal/authority/application"
	authority "energy-broker/internal/authority/domain"
)

// Handler serves Letter of Authority endpoints.
type Handler struct {
	service     *authorityapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *authorityapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("loa handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes LOA requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/v1/loas" {
		if r.Method == http.MethodPost {
			h.handleCreate(w, r)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !strings.HasPrefix(r.URL.Path, "/api/v1/loas/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/loas/")
	parts := strings.Split(path, "/")
	if len(parts) < 1 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	loaID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGet(w, r, loaID)
	case len(parts) == 2 && parts[1] == "sent" && r.Method == http.MethodPost:
		h.handleMutation(w, r, loaID, "loa.sent", h.service.MarkSent)
	case len(parts) == 2 && parts[1] == "signed" && r.Method == http.MethodPost:
		h.handleMutation(w, r, loaID, "loa.signed", h.service.MarkSigned)
	case len(parts) == 2 && parts[1] == "validate" && r.Method == http.MethodPost:
		h.handleMutation(w, r, loaID, "loa.validate", h.service.Validate)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		CustomerID    string `json:"customer_id"`
		CustomerEmail string `json:"customer_email"`
		LeadID        string `json:"lead_id"`
		IssueDate     string `json:"issue_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	issue := time.Time{}
	if req.IssueDate != "" {
		parsed, err := time.Parse("2006-01-02", req.IssueDate)
		if err != nil {
			http.Error(w, "issue_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		issue = parsed.UTC()
	}
	loa, err := h.service.Create(r.Context(), authorityapp.CreateInput{
		Name:          req.Name,
		CustomerID:    req.CustomerID,
		CustomerEmail: req.CustomerEmail,
		LeadID:        req.LeadID,
		IssueDate:     issue,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(loa)
	h.logAudit(r, loa.ID, "loa.create", map[string]any{"customer_id": req.CustomerID})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, loaID string) {
	loa, err := h.service.Get(r.Context(), loaID)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loa)
}

func (h *Handler) handleMutation(w http.ResponseWriter, r *http.Request, loaID, action string, apply func(ctx context.Context, loaID string) (*authority.LOA, error)) {
	loa, err := apply(r.Context(), loaID)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loa)
	h.logAudit(r, loaID, action, nil)
}

func (h *Handler) logAudit(r *http.Request, loaID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "loa",
		ResourceID:   loaID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authority.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, authority.ErrExpired):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
