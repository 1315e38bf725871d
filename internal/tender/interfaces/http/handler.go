package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"energy-broker/internal/audit"
	"energy-broker/internal/auth"
	authority "energy-broker/internal/authority/domain"
	tenderapp "energy-broker/internal/tender/application"
	tender "energy-broker/internal/tender/domain"
)

// Handler serves tender endpoints.
type Handler struct {
	service     *tenderapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *tenderapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("tender handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes tender requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/v1/tenders" {
		if r.Method == http.MethodPost {
			h.handleCreate(w, r)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !strings.HasPrefix(r.URL.Path, "/api/v1/tenders/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/tenders/")
	parts := strings.Split(path, "/")
	if len(parts) < 1 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	requestID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGet(w, r, requestID)
	case len(parts) == 2 && parts[1] == "send" && r.Method == http.MethodPost:
		h.handleSend(w, r, requestID)
	case len(parts) == 2 && parts[1] == "quotes" && r.Method == http.MethodPost:
		h.handleImportQuotes(w, r, requestID)
	case len(parts) == 2 && parts[1] == "responses" && r.Method == http.MethodGet:
		h.handleResponses(w, r, requestID)
	case len(parts) == 2 && parts[1] == "finalize" && r.Method == http.MethodPost:
		h.handleFinalize(w, r, requestID)
	case len(parts) == 6 && parts[1] == "responses" && parts[3] == "lines" && parts[5] == "uplift" && r.Method == http.MethodPut:
		h.handleUplift(w, r, requestID, parts[2], parts[4])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string   `json:"name"`
		LOAID         string   `json:"loa_id"`
		CustomerID    string   `json:"customer_id"`
		CustomerEmail string   `json:"customer_email"`
		LeadID        string   `json:"lead_id"`
		Suppliers     []string `json:"suppliers"`
		Lines         []struct {
			Identifier      string  `json:"identifier"`
			MeterType       string  `json:"meter_type"`
			AnnualUsageKWh  float64 `json:"annual_usage_kwh"`
			CurrentSupplier string  `json:"current_supplier"`
			ContractEndDate string  `json:"contract_end_date"`
			SupplyAddress   string  `json:"supply_address"`
		} `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	in := tenderapp.CreateRequestInput{
		Name:          req.Name,
		LOAID:         req.LOAID,
		CustomerID:    req.CustomerID,
		CustomerEmail: req.CustomerEmail,
		LeadID:        req.LeadID,
		Suppliers:     req.Suppliers,
	}
	for _, line := range req.Lines {
		endDate := time.Time{}
		if line.ContractEndDate != "" {
			parsed, err := time.Parse("2006-01-02", line.ContractEndDate)
			if err != nil {
				http.Error(w, "contract_end_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			endDate = parsed.UTC()
		}
		in.Lines = append(in.Lines, tenderapp.LineInput{
			Identifier:      line.Identifier,
			MeterType:       tender.MeterType(line.MeterType),
			AnnualUsageKWh:  line.AnnualUsageKWh,
			CurrentSupplier: line.CurrentSupplier,
			ContractEndDate: endDate,
			SupplyAddress:   line.SupplyAddress,
		})
	}
	created, err := h.service.CreateRequest(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
	h.logAudit(r, created.ID, "tender.create", map[string]any{"lines": len(created.Lines)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, requestID string) {
	req, err := h.service.Request(r.Context(), requestID)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(req)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request, requestID string) {
	if err := h.service.SendRequest(r.Context(), requestID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, requestID, "tender.send", nil)
}

func (h *Handler) handleImportQuotes(w http.ResponseWriter, r *http.Request, requestID string) {
	var req struct {
		SupplierID string `json:"supplier_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	resp, err := h.service.ImportQuotes(r.Context(), requestID, req.SupplierID)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(resp)
	h.logAudit(r, requestID, "tender.quotes.import", map[string]any{"supplier_id": req.SupplierID, "lines": len(resp.Lines)})
}

func (h *Handler) handleResponses(w http.ResponseWriter, r *http.Request, requestID string) {
	list, err := h.service.ResponsesForRequest(r.Context(), requestID)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request, requestID string) {
	var req struct {
		ResponseID string `json:"response_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.service.FinalizeComparison(r.Context(), requestID, req.ResponseID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, requestID, "tender.finalize", map[string]any{"response_id": req.ResponseID})
}

func (h *Handler) handleUplift(w http.ResponseWriter, r *http.Request, requestID, responseID, lineID string) {
	var req struct {
		UpliftPPerKWh float64 `json:"uplift_p_per_kwh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.service.SetLineUplift(r.Context(), responseID, lineID, req.UpliftPPerKWh); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, requestID, "tender.uplift.set", map[string]any{
		"response_id":      responseID,
		"line_id":          lineID,
		"uplift_p_per_kwh": req.UpliftPPerKWh,
	})
}

func (h *Handler) logAudit(r *http.Request, resourceID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "tender",
		ResourceID:   resourceID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tender.ErrNotFound), errors.Is(err, authority.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, tenderapp.ErrManagerRequired):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
