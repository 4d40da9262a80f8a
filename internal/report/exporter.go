// Package report renders accounting documents as Excel workbooks.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/oumarfall/procureflow/internal/domain/entity"
)

// Exporter writes payment vouchers and discrepancy reports to disk
type Exporter struct {
	outputDir   string
	companyName string
	logger      *zap.Logger
}

// NewExporter creates a new report exporter
func NewExporter(outputDir, companyName string, logger *zap.Logger) *Exporter {
	return &Exporter{
		outputDir:   outputDir,
		companyName: companyName,
		logger:      logger,
	}
}

// PaymentVoucher writes the voucher workbook for an executed payment and
// returns the output path
func (e *Exporter) PaymentVoucher(payment *entity.Payment, invoice *entity.SupplierInvoice) (string, error) {
	e.logger.Info("Generating payment voucher",
		zap.Int64("payment_id", payment.ID),
		zap.String("payment_number", payment.Number))

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	e.setCell(f, sheet, "A1", e.companyName)
	e.setCell(f, sheet, "A2", "Payment Voucher")
	e.setCell(f, sheet, "A4", "Voucher Number")
	e.setCell(f, sheet, "B4", payment.Number)
	e.setCell(f, sheet, "A5", "Invoice Number")
	e.setCell(f, sheet, "B5", invoice.Number)
	e.setCell(f, sheet, "A6", "Supplier ID")
	e.setCell(f, sheet, "B6", fmt.Sprintf("%d", invoice.SupplierID))
	e.setCell(f, sheet, "A7", "Amount TTC")
	e.setCell(f, sheet, "B7", payment.Amount.StringFixed(2))
	e.setCell(f, sheet, "A8", "Status")
	e.setCell(f, sheet, "B8", payment.Status.String())
	if payment.ExecutedAt != nil {
		e.setCell(f, sheet, "A9", "Executed At")
		e.setCell(f, sheet, "B9", payment.ExecutedAt.Format("2006-01-02 15:04"))
	}

	row := 11
	e.setCell(f, sheet, fmt.Sprintf("A%d", row), "Article")
	e.setCell(f, sheet, fmt.Sprintf("B%d", row), "Quantity")
	e.setCell(f, sheet, fmt.Sprintf("C%d", row), "Unit Price")
	e.setCell(f, sheet, fmt.Sprintf("D%d", row), "Total")
	for _, line := range invoice.Lines {
		row++
		e.setCell(f, sheet, fmt.Sprintf("A%d", row), line.ArticleCode)
		e.setCell(f, sheet, fmt.Sprintf("B%d", row), line.Quantity.String())
		e.setCell(f, sheet, fmt.Sprintf("C%d", row), line.UnitPrice.StringFixed(2))
		e.setCell(f, sheet, fmt.Sprintf("D%d", row), line.Total().StringFixed(2))
	}

	outputPath := filepath.Join(e.outputDir, fmt.Sprintf("%s.xlsx", sanitizeFileName(payment.Number)))
	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save payment voucher: %w", err)
	}

	e.logger.Info("Payment voucher generated", zap.String("output_path", outputPath))
	return outputPath, nil
}

// DiscrepancyReport writes the reconciliation findings for a blocked
// invoice and returns the output path
func (e *Exporter) DiscrepancyReport(invoice *entity.SupplierInvoice) (string, error) {
	e.logger.Info("Generating discrepancy report",
		zap.Int64("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.Number))

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	e.setCell(f, sheet, "A1", e.companyName)
	e.setCell(f, sheet, "A2", "Invoice Discrepancy Report")
	e.setCell(f, sheet, "A4", "Invoice Number")
	e.setCell(f, sheet, "B4", invoice.Number)
	e.setCell(f, sheet, "A5", "Supplier ID")
	e.setCell(f, sheet, "B5", fmt.Sprintf("%d", invoice.SupplierID))
	e.setCell(f, sheet, "A6", "Total TTC")
	e.setCell(f, sheet, "B6", invoice.TotalTTC.StringFixed(2))
	e.setCell(f, sheet, "A7", "Generated At")
	e.setCell(f, sheet, "B7", time.Now().Format("2006-01-02 15:04"))

	row := 9
	e.setCell(f, sheet, fmt.Sprintf("A%d", row), "Findings")
	for _, finding := range strings.Split(invoice.DiscrepancyReport, "; ") {
		if finding == "" {
			continue
		}
		row++
		e.setCell(f, sheet, fmt.Sprintf("A%d", row), finding)
	}

	outputPath := filepath.Join(e.outputDir, fmt.Sprintf("%s_discrepancies.xlsx", sanitizeFileName(invoice.Number)))
	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save discrepancy report: %w", err)
	}

	e.logger.Info("Discrepancy report generated", zap.String("output_path", outputPath))
	return outputPath, nil
}

// setCell sets a cell value, logging rather than failing on error
func (e *Exporter) setCell(f *excelize.File, sheet, cell, value string) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
