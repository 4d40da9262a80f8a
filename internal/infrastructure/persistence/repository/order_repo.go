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

// PurchaseOrderRepository implements port.PurchaseOrderRepository
type PurchaseOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPurchaseOrderRepository creates a new purchase order repository
func NewPurchaseOrderRepository(db *sql.DB, logger *zap.Logger) port.PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db, logger: logger}
}

// Create persists the order and its lines
func (r *PurchaseOrderRepository) Create(ctx context.Context, order *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (
			number, proforma_id, request_id, buyer_id, supplier_id,
			total_ht, total_tva, total_ttc, status, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		order.Number, order.ProformaID, order.RequestID, order.BuyerID, order.SupplierID,
		order.TotalHT.String(), order.TotalTVA.String(), order.TotalTTC.String(), string(order.Status))
	if err != nil {
		r.logger.Error("Failed to create purchase order", zap.Error(err))
		return fmt.Errorf("failed to create purchase order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	order.ID = id
	order.Version = 1

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = id
		lineResult, err := getExecutor(ctx, r.db).ExecContext(ctx, `
			INSERT INTO purchase_order_lines (order_id, article_code, quantity, unit_price)
			VALUES (?, ?, ?, ?)
		`, id, line.ArticleCode, line.Quantity.String(), line.UnitPrice.String())
		if err != nil {
			return fmt.Errorf("failed to create order line: %w", err)
		}
		if line.ID, err = lineResult.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get line insert id: %w", err)
		}
	}
	return nil
}

// GetByID retrieves an order with its lines
func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	query := `
		SELECT id, number, proforma_id, request_id, buyer_id, supplier_id,
			total_ht, total_tva, total_ttc, status, validator_id, final_approver_id,
			version, created_at, updated_at
		FROM purchase_orders
		WHERE id = ?
	`
	order, err := r.scanOrder(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: purchase order %d", port.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get purchase order", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	if order.Lines, err = r.loadLines(ctx, id); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByStatus retrieves orders in the given status, without lines
func (r *PurchaseOrderRepository) ListByStatus(ctx context.Context, status entity.OrderStatus) ([]*entity.PurchaseOrder, error) {
	query := `
		SELECT id, number, proforma_id, request_id, buyer_id, supplier_id,
			total_ht, total_tva, total_ttc, status, validator_id, final_approver_id,
			version, created_at, updated_at
		FROM purchase_orders
		WHERE status = ?
		ORDER BY id
	`
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []*entity.PurchaseOrder
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// Update applies a compare-and-swap on the row version
func (r *PurchaseOrderRepository) Update(ctx context.Context, order *entity.PurchaseOrder) error {
	query := `
		UPDATE purchase_orders
		SET status = ?, validator_id = ?, final_approver_id = ?,
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		string(order.Status), order.ValidatorID, order.FinalApproverID, order.ID, order.Version)
	if err != nil {
		r.logger.Error("Failed to update purchase order", zap.Int64("id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to update purchase order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: purchase order %d at version %d", port.ErrVersionConflict, order.ID, order.Version)
	}
	order.Version++
	return nil
}

func (r *PurchaseOrderRepository) scanOrder(row rowScanner) (*entity.PurchaseOrder, error) {
	var order entity.PurchaseOrder
	var totalHT, totalTVA, totalTTC, status string

	err := row.Scan(&order.ID, &order.Number, &order.ProformaID, &order.RequestID,
		&order.BuyerID, &order.SupplierID, &totalHT, &totalTVA, &totalTTC,
		&status, &order.ValidatorID, &order.FinalApproverID,
		&order.Version, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if order.TotalHT, err = decimal.NewFromString(totalHT); err != nil {
		return nil, fmt.Errorf("invalid total_ht %q: %w", totalHT, err)
	}
	if order.TotalTVA, err = decimal.NewFromString(totalTVA); err != nil {
		return nil, fmt.Errorf("invalid total_tva %q: %w", totalTVA, err)
	}
	if order.TotalTTC, err = decimal.NewFromString(totalTTC); err != nil {
		return nil, fmt.Errorf("invalid total_ttc %q: %w", totalTTC, err)
	}
	order.Status = entity.OrderStatus(status)
	return &order, nil
}

func (r *PurchaseOrderRepository) loadLines(ctx context.Context, orderID int64) ([]entity.OrderLine, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT id, order_id, article_code, quantity, unit_price
		FROM purchase_order_lines
		WHERE order_id = ?
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	defer rows.Close()

	var lines []entity.OrderLine
	for rows.Next() {
		var line entity.OrderLine
		var quantity, unitPrice string
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ArticleCode, &quantity, &unitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
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
