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

// PaymentRepository implements port.PaymentRepository
type PaymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB, logger *zap.Logger) port.PaymentRepository {
	return &PaymentRepository{db: db, logger: logger}
}

// Create persists the payment
func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (number, invoice_id, amount, status, version)
		VALUES (?, ?, ?, ?, 1)
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		payment.Number, payment.InvoiceID, payment.Amount.String(), string(payment.Status))
	if err != nil {
		r.logger.Error("Failed to create payment", zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	payment.ID = id
	payment.Version = 1
	return nil
}

// GetByID retrieves a payment
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*entity.Payment, error) {
	query := `
		SELECT id, number, invoice_id, amount, status, version, executed_at, created_at, updated_at
		FROM payments
		WHERE id = ?
	`
	payment, err := r.scanPayment(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: payment %d", port.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get payment", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// ListByInvoice retrieves all payments recorded against an invoice
func (r *PaymentRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]*entity.Payment, error) {
	query := `
		SELECT id, number, invoice_id, amount, status, version, executed_at, created_at, updated_at
		FROM payments
		WHERE invoice_id = ?
		ORDER BY id
	`
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := r.scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// Update applies a compare-and-swap on the row version
func (r *PaymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	query := `
		UPDATE payments
		SET status = ?, executed_at = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		string(payment.Status), payment.ExecutedAt, payment.ID, payment.Version)
	if err != nil {
		r.logger.Error("Failed to update payment", zap.Int64("id", payment.ID), zap.Error(err))
		return fmt.Errorf("failed to update payment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: payment %d at version %d", port.ErrVersionConflict, payment.ID, payment.Version)
	}
	payment.Version++
	return nil
}

func (r *PaymentRepository) scanPayment(row rowScanner) (*entity.Payment, error) {
	var payment entity.Payment
	var amount, status string

	err := row.Scan(&payment.ID, &payment.Number, &payment.InvoiceID, &amount,
		&status, &payment.Version, &payment.ExecutedAt, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if payment.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	payment.Status = entity.PaymentStatus(status)
	return &payment, nil
}
