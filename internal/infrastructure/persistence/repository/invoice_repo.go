package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/domain/entity"
)

// SupplierInvoiceRepository implements port.SupplierInvoiceRepository
type SupplierInvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSupplierInvoiceRepository creates a new supplier invoice repository
func NewSupplierInvoiceRepository(db *sql.DB, logger *zap.Logger) port.SupplierInvoiceRepository {
	return &SupplierInvoiceRepository{db: db, logger: logger}
}

// Create persists the invoice and its lines
func (r *SupplierInvoiceRepository) Create(ctx context.Context, invoice *entity.SupplierInvoice) error {
	query := `
		INSERT INTO supplier_invoices (
			number, supplier_id, order_id, total_ttc, status,
			match_ok, discrepancy_report, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, 1)
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		invoice.Number, invoice.SupplierID, invoice.OrderID, invoice.TotalTTC.String(),
		string(invoice.Status), invoice.MatchOK, invoice.DiscrepancyReport)
	if err != nil {
		r.logger.Error("Failed to create supplier invoice", zap.Error(err))
		return fmt.Errorf("failed to create supplier invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	invoice.ID = id
	invoice.Version = 1

	for i := range invoice.Lines {
		line := &invoice.Lines[i]
		line.InvoiceID = id
		lineResult, err := getExecutor(ctx, r.db).ExecContext(ctx, `
			INSERT INTO supplier_invoice_lines (invoice_id, article_code, quantity, unit_price)
			VALUES (?, ?, ?, ?)
		`, id, line.ArticleCode, line.Quantity.String(), line.UnitPrice.String())
		if err != nil {
			return fmt.Errorf("failed to create invoice line: %w", err)
		}
		if line.ID, err = lineResult.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get line insert id: %w", err)
		}
	}
	return nil
}

// GetByID retrieves an invoice with its lines
func (r *SupplierInvoiceRepository) GetByID(ctx context.Context, id int64) (*entity.SupplierInvoice, error) {
	query := `
		SELECT id, number, supplier_id, order_id, total_ttc, status,
			match_ok, discrepancy_report, validator_id, version, created_at, updated_at
		FROM supplier_invoices
		WHERE id = ?
	`
	invoice, err := r.scanInvoice(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: supplier invoice %d", port.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get supplier invoice", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get supplier invoice: %w", err)
	}

	if invoice.Lines, err = r.loadLines(ctx, id); err != nil {
		return nil, err
	}
	return invoice, nil
}

// ListByStatus retrieves invoices in the given status, without lines
func (r *SupplierInvoiceRepository) ListByStatus(ctx context.Context, status entity.InvoiceStatus) ([]*entity.SupplierInvoice, error) {
	query := `
		SELECT id, number, supplier_id, order_id, total_ttc, status,
			match_ok, discrepancy_report, validator_id, version, created_at, updated_at
		FROM supplier_invoices
		WHERE status = ?
		ORDER BY id
	`
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.SupplierInvoice
	for rows.Next() {
		invoice, err := r.scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

// Update applies a compare-and-swap on the row version
func (r *SupplierInvoiceRepository) Update(ctx context.Context, invoice *entity.SupplierInvoice) error {
	query := `
		UPDATE supplier_invoices
		SET status = ?, match_ok = ?, discrepancy_report = ?, validator_id = ?,
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		string(invoice.Status), invoice.MatchOK, invoice.DiscrepancyReport,
		invoice.ValidatorID, invoice.ID, invoice.Version)
	if err != nil {
		r.logger.Error("Failed to update supplier invoice", zap.Int64("id", invoice.ID), zap.Error(err))
		return fmt.Errorf("failed to update supplier invoice: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: supplier invoice %d at version %d", port.ErrVersionConflict, invoice.ID, invoice.Version)
	}
	invoice.Version++
	return nil
}

func (r *SupplierInvoiceRepository) scanInvoice(row rowScanner) (*entity.SupplierInvoice, error) {
	var invoice entity.SupplierInvoice
	var totalTTC, status string

	err := row.Scan(&invoice.ID, &invoice.Number, &invoice.SupplierID, &invoice.OrderID,
		&totalTTC, &status, &invoice.MatchOK, &invoice.DiscrepancyReport,
		&invoice.ValidatorID, &invoice.Version, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if invoice.TotalTTC, err = decimal.NewFromString(totalTTC); err != nil {
		return nil, fmt.Errorf("invalid total_ttc %q: %w", totalTTC, err)
	}
	invoice.Status = entity.InvoiceStatus(status)
	return &invoice, nil
}

func (r *SupplierInvoiceRepository) loadLines(ctx context.Context, invoiceID int64) ([]entity.InvoiceLine, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT id, invoice_id, article_code, quantity, unit_price
		FROM supplier_invoice_lines
		WHERE invoice_id = ?
		ORDER BY id
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice lines: %w", err)
	}
	defer rows.Close()

	var lines []entity.InvoiceLine
	for rows.Next() {
		var line entity.InvoiceLine
		var quantity, unitPrice string
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.ArticleCode, &quantity, &unitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		if line.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("invalid quantity %q: %w", quantity, err)
		}
		if line.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("invalid unit price %q: %w", unitPrice, err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
