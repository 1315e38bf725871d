package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	commission "energy-broker/internal/commission/domain"
	contract "energy-broker/internal/contract/domain"
)

// BuildReconciliationXLSX renders a contract's commission position: a summary
// sheet with the derived breakdown and an entries sheet with the raw ledger.
func BuildReconciliationXLSX(c *contract.Contract, ledger commission.Ledger) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	entriesSheet := "entries"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(entriesSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Commission Reconciliation")
	_ = f.SetCellValue(summarySheet, "A3", "Contract")
	_ = f.SetCellValue(summarySheet, "B3", c.Name)
	_ = f.SetCellValue(summarySheet, "A4", "Supplier")
	_ = f.SetCellValue(summarySheet, "B4", c.SupplierID)
	_ = f.SetCellValue(summarySheet, "A5", "Status")
	_ = f.SetCellValue(summarySheet, "B5", string(c.Status))
	_ = f.SetCellValue(summarySheet, "A6", "Base")
	_ = f.SetCellValue(summarySheet, "B6", c.Commission.Base)
	_ = f.SetCellValue(summarySheet, "A7", "Supplier Commission")
	_ = f.SetCellValue(summarySheet, "B7", c.Commission.SupplierCommission)
	_ = f.SetCellValue(summarySheet, "A8", "Full Commission")
	_ = f.SetCellValue(summarySheet, "B8", c.Commission.FullCommission)
	_ = f.SetCellValue(summarySheet, "A9", "First Payment")
	_ = f.SetCellValue(summarySheet, "B9", c.Commission.FirstPayment)
	_ = f.SetCellValue(summarySheet, "A10", "Amount Total")
	_ = f.SetCellValue(summarySheet, "B10", c.Commission.AmountTotal)
	_ = f.SetCellValue(summarySheet, "A11", "To Pay")
	_ = f.SetCellValue(summarySheet, "B11", c.Commission.ToPay)

	_ = f.SetCellValue(entriesSheet, "A1", "Date")
	_ = f.SetCellValue(entriesSheet, "B1", "Side")
	_ = f.SetCellValue(entriesSheet, "C1", "Amount")
	_ = f.SetCellValue(entriesSheet, "D1", "Note")
	for i, entry := range ledger.Entries() {
		row := i + 2
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("A%d", row), entry.Date.Format("2006-01-02"))
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("B%d", row), string(entry.Side))
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("C%d", row), entry.Amount)
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("D%d", row), entry.Note)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildCommissionPDF renders a minimal PDF for a contract's commission state.
func BuildCommissionPDF(c *contract.Contract, ledger commission.Ledger) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Commission Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Contract: %s", c.Name))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Supplier: %s", c.SupplierID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", c.Status))
	pdf.Ln(5)
	if !c.EndDate.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("End Date: %s", c.EndDate.Format("2006-01-02")))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.Cell(0, 6, fmt.Sprintf("Base: %.2f", c.Commission.Base))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Supplier Commission: %.2f", c.Commission.SupplierCommission))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Full Commission: %.2f", c.Commission.FullCommission))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("First Payment: %.2f", c.Commission.FirstPayment))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Amount Total: %.2f", c.Commission.AmountTotal))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("To Pay: %.2f", c.Commission.ToPay))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Side", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, entry := range ledger.Entries() {
		pdf.CellFormat(40, 6, entry.Date.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, string(entry.Side), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.2f", entry.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
