package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"energy-broker/internal/audit"
	"energy-broker/internal/auth"
	commission "energy-broker/internal/commission/domain"
)

// RuleStore persists commission rules.
type RuleStore interface {
	Create(ctx context.Context, rule *commission.Rule) error
	Get(ctx context.Context, id string) (*commission.Rule, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]*commission.Rule, error)
}

// RulesHandler serves commission rule endpoints.
type RulesHandler struct {
	rules       RuleStore
	notFound    error
	auditLogger audit.Logger
}

// NewRulesHandler constructs a RulesHandler. notFound is the store's sentinel
// for a missing rule, mapped to 404.
func NewRulesHandler(rules RuleStore, notFound error, auditLogger audit.Logger) (*RulesHandler, error) {
	if rules == nil {
		return nil, errors.New("rules handler: nil store")
	}
	return &RulesHandler{rules: rules, notFound: notFound, auditLogger: auditLogger}, nil
}

// ServeHTTP routes commission rule requests.
func (h *RulesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/v1/commission-rules" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if !strings.HasPrefix(r.URL.Path, "/api/v1/commission-rules/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	ruleID := strings.TrimPrefix(r.URL.Path, "/api/v1/commission-rules/")
	if ruleID == "" || strings.Contains(ruleID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.handleGet(w, r, ruleID)
}

func (h *RulesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID                 string   `json:"id"`
		Name               string   `json:"name"`
		SupplierID         string   `json:"supplier_id"`
		DurationYears      int      `json:"duration_years"`
		SupplierPercent    float64  `json:"supplier_percent"`
		BrokerSplitPercent float64  `json:"broker_split_percent"`
		UpfrontPercent     *float64 `json:"upfront_percent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	rule := &commission.Rule{
		ID:                 req.ID,
		Name:               req.Name,
		SupplierID:         req.SupplierID,
		DurationYears:      req.DurationYears,
		SupplierPercent:    req.SupplierPercent,
		BrokerSplitPercent: req.BrokerSplitPercent,
		UpfrontPercent:     req.UpfrontPercent,
	}
	if err := h.rules.Create(r.Context(), rule); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(rule)
	h.logAudit(r, rule.ID, "commission.rule.create", map[string]any{"supplier_id": rule.SupplierID})
}

func (h *RulesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	supplierID := r.URL.Query().Get("supplier_id")
	if supplierID == "" {
		http.Error(w, "supplier_id is required", http.StatusBadRequest)
		return
	}
	list, err := h.rules.ListBySupplier(r.Context(), supplierID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (h *RulesHandler) handleGet(w http.ResponseWriter, r *http.Request, ruleID string) {
	rule, err := h.rules.Get(r.Context(), ruleID)
	if err != nil {
		if h.notFound != nil && errors.Is(err, h.notFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rule)
}

func (h *RulesHandler) logAudit(r *http.Request, ruleID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "commission_rule",
		ResourceID:   ruleID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
