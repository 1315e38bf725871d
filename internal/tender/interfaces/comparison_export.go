package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	tender "energy-broker/internal/tender/domain"
)

// BuildTenderCSV renders a price request's meter list as CSV, one row per
// meter line. This is the file brokers attach when tendering to suppliers.
func BuildTenderCSV(req *tender.PriceRequest) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"identifier", "meter_type", "annual_usage_kwh", "current_supplier", "contract_end_date", "supply_address"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, line := range req.Lines {
		endDate := ""
		if !line.ContractEndDate.IsZero() {
			endDate = line.ContractEndDate.Format("2006-01-02")
		}
		record := []string{
			line.Meter.Core,
			string(line.MeterType),
			strconv.FormatFloat(line.AnnualUsageKWh, 'f', -1, 64),
			line.CurrentSupplier,
			endDate,
			line.SupplyAddress,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildComparisonPDF renders a quote comparison for a price request: one table
// per supplier response, annual costs with and without uplift.
func BuildComparisonPDF(req *tender.PriceRequest, responses []*tender.PriceResponse) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Quote Comparison")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Tender: %s", req.Name))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Meters: %d", len(req.Lines)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Usage (kWh): %.0f", req.TotalUsageKWh()))
	pdf.Ln(8)

	for _, resp := range responses {
		pdf.SetFont("Arial", "B", 10)
		title := resp.SupplierID
		if resp.BestOffer {
			title += " (best offer)"
		}
		pdf.Cell(0, 6, title)
		pdf.Ln(7)

		pdf.CellFormat(50, 6, "Meter", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Unit Rate (p/kWh)", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Standing (GBP/day)", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Annual Cost", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "With Uplift", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)

		for _, line := range resp.Lines {
			meter := ""
			if reqLine, ok := lookupRequestLine(req, line.RequestLineID); ok {
				meter = reqLine.Meter.Core
			}
			withUplift := "-"
			if line.UpliftPPerKWh > 0 {
				withUplift = fmt.Sprintf("%.2f", line.AnnualCostWithUplift)
			}
			pdf.CellFormat(50, 6, meter, "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.3f", line.Quote.UnitRatePPerKWh), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.4f", line.Quote.StandingPerDay), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", line.AnnualCost), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, withUplift, "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(170, 6, "Total", "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", resp.TotalAnnualCost()), "1", 0, "R", false, 0, "")
		pdf.Ln(10)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lookupRequestLine(req *tender.PriceRequest, requestLineID string) (*tender.RequestLine, bool) {
	for i := range req.Lines {
		if req.Lines[i].ID == requestLineID {
			return &req.Lines[i], true
		}
	}
	return nil, false
}
