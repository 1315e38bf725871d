package apihttp

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	commission "energy-broker/internal/commission/domain"
	contract "energy-broker/internal/contract/domain"
	contractexport "energy-broker/internal/contract/interfaces"
	"energy-broker/internal/observability/metrics"
	tender "energy-broker/internal/tender/domain"
	tenderexport "energy-broker/internal/tender/interfaces"
)

// TenderReader loads tenders and their responses for export.
type TenderReader interface {
	Request(ctx context.Context, requestID string) (*tender.PriceRequest, error)
	ResponsesForRequest(ctx context.Context, requestID string) ([]*tender.PriceResponse, error)
}

// ContractReader loads contracts and their ledgers for export.
type ContractReader interface {
	Get(ctx context.Context, contractID string) (*contract.Contract, error)
	Ledger(ctx context.Context, contractID string) (commission.Ledger, error)
}

// ExportsHandler serves file exports under /api/v1/exports/.
type ExportsHandler struct {
	tenders   TenderReader
	contracts ContractReader
}

// NewExportsHandler constructs an ExportsHandler.
func NewExportsHandler(tenders TenderReader, contracts ContractReader) (*ExportsHandler, error) {
	if tenders == nil || contracts == nil {
		return nil, errors.New("exports handler: nil reader")
	}
	return &ExportsHandler{tenders: tenders, contracts: contracts}, nil
}

// ServeHTTP routes export requests:
//
//	GET /api/v1/exports/tenders/{id}/meters.csv
//	GET /api/v1/exports/tenders/{id}/comparison.pdf
//	GET /api/v1/exports/contracts/{id}/reconciliation.xlsx
//	GET /api/v1/exports/contracts/{id}/commission.pdf
func (h *ExportsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/exports/")
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[1] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case parts[0] == "tenders" && parts[2] == "meters.csv":
		h.serveTenderCSV(w, r, parts[1])
	case parts[0] == "tenders" && parts[2] == "comparison.pdf":
		h.serveComparisonPDF(w, r, parts[1])
	case parts[0] == "contracts" && parts[2] == "reconciliation.xlsx":
		h.serveReconciliationXLSX(w, r, parts[1])
	case parts[0] == "contracts" && parts[2] == "commission.pdf":
		h.serveCommissionPDF(w, r, parts[1])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ExportsHandler) serveTenderCSV(w http.ResponseWriter, r *http.Request, requestID string) {
	started := time.Now()
	req, err := h.tenders.Request(r.Context(), requestID)
	if err != nil {
		respondReadError(w, err)
		metrics.ObserveExport("csv", metrics.ResultError, time.Since(started))
		return
	}
	data, err := tenderexport.BuildTenderCSV(req)
	if err != nil {
		http.Error(w, "export failed", http.StatusInternalServerError)
		metrics.ObserveExport("csv", metrics.ResultError, time.Since(started))
		return
	}
	serveFile(w, data, "text/csv; charset=utf-8", requestID+"-meters.csv")
	metrics.ObserveExport("csv", metrics.ResultSuccess, time.Since(started))
}

func (h *ExportsHandler) serveComparisonPDF(w http.ResponseWriter, r *http.Request, requestID string) {
	started := time.Now()
	req, err := h.tenders.Request(r.Context(), requestID)
	if err != nil {
		respondReadError(w, err)
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(started))
		return
	}
	responses, err := h.tenders.ResponsesForRequest(r.Context(), requestID)
	if err != nil {
		respondReadError(w, err)
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(started))
		return
	}
	data, err := tenderexport.BuildComparisonPDF(req, responses)
	if err != nil {
		http.Error(w, "export failed", http.StatusInternalServerError)
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(started))
		return
	}
	serveFile(w, data, "application/pdf", requestID+"-comparison.pdf")
	metrics.ObserveExport("pdf", metrics.ResultSuccess, time.Since(started))
}

func (h *ExportsHandler) serveReconciliationXLSX(w http.ResponseWriter, r *http.Request, contractID string) {
	started := time.Now()
	c, ledger, err := h.loadContract(r.Context(), contractID)
	if err != nil {
		respondReadError(w, err)
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(started))
		return
	}
	data, err := contractexport.BuildReconciliationXLSX(c, ledger)
	if err != nil {
		http.Error(w, "export failed", http.StatusInternalServerError)
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(started))
		return
	}
	serveFile(w, data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", contractID+"-reconciliation.xlsx")
	metrics.ObserveExport("xlsx", metrics.ResultSuccess, time.Since(started))
}

func (h *ExportsHandler) serveCommissionPDF(w http.ResponseWriter, r *http.Request, contractID string) {
	started := time.Now()
	c, ledger, err := h.loadContract(r.Context(), contractID)
	if err != nil {
		respondReadError(w, err)
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(started))
		return
	}
	data, err := contractexport.BuildCommissionPDF(c, ledger)
	if err != nil {
		http.Error(w, "export failed", http.StatusInternalServerError)
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(started))
		return
	}
	serveFile(w, data, "application/pdf", contractID+"-commission.pdf")
	metrics.ObserveExport("pdf", metrics.ResultSuccess, time.Since(started))
}

func (h *ExportsHandler) loadContract(ctx context.Context, contractID string) (*contract.Contract, commission.Ledger, error) {
	c, err := h.contracts.Get(ctx, contractID)
	if err != nil {
		return nil, commission.Ledger{}, err
	}
	ledger, err := h.contracts.Ledger(ctx, contractID)
	if err != nil {
		return nil, commission.Ledger{}, err
	}
	return c, ledger, nil
}

func serveFile(w http.ResponseWriter, data []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(data)
}

func respondReadError(w http.ResponseWriter, err error) {
	if errors.Is(err, tender.ErrNotFound) || errors.Is(err, contract.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
