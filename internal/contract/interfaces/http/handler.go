package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"energy-broker/internal/audit"
	"energy-broker/internal/auth"
	commission "energy-broker/internal/commission/domain"
	contractapp "energy-broker/internal/contract/application"
	contract "energy-broker/internal/contract/domain"
	tender "energy-broker/internal/tender/domain"
)

// Handler serves contract endpoints.
type Handler struct {
	service     *contractapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *contractapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("contract handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes contract requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/v1/contracts" {
		if r.Method == http.MethodPost {
			h.handleCreate(w, r)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !strings.HasPrefix(r.URL.Path, "/api/v1/contracts/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/contracts/")
	parts := strings.Split(path, "/")
	if len(parts) < 1 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	contractID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGet(w, r, contractID)
	case len(parts) == 2 && parts[1] == "ledger" && r.Method == http.MethodGet:
		h.handleLedgerList(w, r, contractID)
	case len(parts) == 2 && parts[1] == "ledger" && r.Method == http.MethodPost:
		h.handleLedgerAppend(w, r, contractID)
	case len(parts) == 2 && parts[1] == "transition" && r.Method == http.MethodPost:
		h.handleTransition(w, r, contractID)
	case len(parts) == 2 && parts[1] == "rule" && r.Method == http.MethodPost:
		h.handleAttachRule(w, r, contractID)
	case len(parts) == 2 && parts[1] == "recompute" && r.Method == http.MethodPost:
		h.handleRecompute(w, r, contractID)
	case len(parts) == 2 && parts[1] == "sign" && r.Method == http.MethodPost:
		h.handleSign(w, r, contractID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		CustomerID     string `json:"customer_id"`
		SupplierID     string `json:"supplier_id"`
		LeadID         string `json:"lead_id"`
		LOAID          string `json:"loa_id"`
		Type           string `json:"type"`
		StartDate      string `json:"start_date"`
		EndDate        string `json:"end_date"`
		ResponseID     string `json:"response_id"`
		RuleID         string `json:"rule_id"`
		SignTemplateID string `json:"sign_template_id"`
		SignerID       string `json:"signer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateFromResponse(r.Context(), contractapp.CreateInput{
		Name:           req.Name,
		CustomerID:     req.CustomerID,
		SupplierID:     req.SupplierID,
		LeadID:         req.LeadID,
		LOAID:          req.LOAID,
		Type:           contract.Type(req.Type),
		StartDate:      start,
		EndDate:        end,
		ResponseID:     req.ResponseID,
		RuleID:         req.RuleID,
		SignTemplateID: req.SignTemplateID,
		SignerID:       req.SignerID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
	h.logAudit(r, created.ID, "contract.create", map[string]any{"response_id": req.ResponseID})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, contractID string) {
	c, err := h.service.Get(r.Context(), contractID)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
}

func (h *Handler) handleLedgerList(w http.ResponseWriter, r *http.Request, contractID string) {
	ledger, err := h.service.Ledger(r.Context(), contractID)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ledger.Entries())
}

func (h *Handler) handleLedgerAppend(w http.ResponseWriter, r *http.Request, contractID string) {
	var req struct {
		Side   string  `json:"side"`
		Date   string  `json:"date"`
		Amount float64 `json:"amount"`
		Note   string  `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	c, err := h.service.AppendLedgerEntry(r.Context(), contractID, contractapp.LedgerEntryInput{
		Side:   commission.Side(req.Side),
		Date:   date,
		Amount: req.Amount,
		Note:   req.Note,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
	h.logAudit(r, contractID, "contract.ledger.append", map[string]any{"side": req.Side, "amount": req.Amount})
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, contractID string) {
	var req struct {
		To string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	c, err := h.service.Transition(r.Context(), contractID, contract.Status(req.To))
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
	h.logAudit(r, contractID, "contract.transition", map[string]any{"to": req.To})
}

func (h *Handler) handleAttachRule(w http.ResponseWriter, r *http.Request, contractID string) {
	var req struct {
		RuleID string `json:"rule_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	c, err := h.service.AttachRule(r.Context(), contractID, req.RuleID)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
	h.logAudit(r, contractID, "contract.rule.attach", map[string]any{"rule_id": req.RuleID})
}

func (h *Handler) handleRecompute(w http.ResponseWriter, r *http.Request, contractID string) {
	c, err := h.service.RecomputeCommission(r.Context(), contractID)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
	h.logAudit(r, contractID, "contract.commission.recompute", nil)
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request, contractID string) {
	sent, err := h.service.SendForSignature(r.Context(), contractID)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"sent": sent})
	h.logAudit(r, contractID, "contract.sign.request", map[string]any{"sent": sent})
}

func (h *Handler) logAudit(r *http.Request, contractID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "contract",
		ResourceID:   contractID,
		ContractID:   contractID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contract.ErrNotFound), errors.Is(err, tender.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, contract.ErrInvalidTransition), errors.Is(err, contract.ErrUnknownStatus):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}
