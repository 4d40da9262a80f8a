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

// GoodsReceiptRepository implements port.GoodsReceiptRepository
type GoodsReceiptRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewGoodsReceiptRepository creates a new goods receipt repository
func NewGoodsReceiptRepository(db *sql.DB, logger *zap.Logger) port.GoodsReceiptRepository {
	return &GoodsReceiptRepository{db: db, logger: logger}
}

// Create persists the receipt and its lines
func (r *GoodsReceiptRepository) Create(ctx context.Context, receipt *entity.GoodsReceipt) error {
	query := `
		INSERT INTO goods_receipts (number, order_id, receiver_id, depot_id, status, version)
		VALUES (?, ?, ?, ?, ?, 1)
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		receipt.Number, receipt.OrderID, receipt.ReceiverID, receipt.DepotID, string(receipt.Status))
	if err != nil {
		r.logger.Error("Failed to create goods receipt", zap.Error(err))
		return fmt.Errorf("failed to create goods receipt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	receipt.ID = id
	receipt.Version = 1

	for i := range receipt.Lines {
		line := &receipt.Lines[i]
		line.ReceiptID = id
		lineResult, err := getExecutor(ctx, r.db).ExecContext(ctx, `
			INSERT INTO goods_receipt_lines (
				receipt_id, article_code, ordered_qty, received_qty,
				conforming_qty, non_conforming_qty, unit_cost, reason
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, id, line.ArticleCode, line.OrderedQty.String(), line.ReceivedQty.String(),
			line.ConformingQty.String(), line.NonConformingQty.String(), line.UnitCost.String(), line.Reason)
		if err != nil {
			return fmt.Errorf("failed to create receipt line: %w", err)
		}
		if line.ID, err = lineResult.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get line insert id: %w", err)
		}
	}
	return nil
}

// GetByID retrieves a receipt with its lines
func (r *GoodsReceiptRepository) GetByID(ctx context.Context, id int64) (*entity.GoodsReceipt, error) {
	query := `
		SELECT id, number, order_id, receiver_id, depot_id, status,
			version, finalized_at, created_at, updated_at
		FROM goods_receipts
		WHERE id = ?
	`
	receipt, err := r.scanReceipt(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: goods receipt %d", port.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get goods receipt", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get goods receipt: %w", err)
	}

	if receipt.Lines, err = r.loadLines(ctx, id); err != nil {
		return nil, err
	}
	return receipt, nil
}

// ListByOrder retrieves all receipts recorded against an order, with lines
func (r *GoodsReceiptRepository) ListByOrder(ctx context.Context, orderID int64) ([]*entity.GoodsReceipt, error) {
	query := `
		SELECT id, number, order_id, receiver_id, depot_id, status,
			version, finalized_at, created_at, updated_at
		FROM goods_receipts
		WHERE order_id = ?
		ORDER BY id
	`
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goods receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*entity.GoodsReceipt
	for rows.Next() {
		receipt, err := r.scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goods receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, receipt := range receipts {
		if receipt.Lines, err = r.loadLines(ctx, receipt.ID); err != nil {
			return nil, err
		}
	}
	return receipts, nil
}

// Update applies a compare-and-swap on the row version and rewrites the
// line counters recorded during control
func (r *GoodsReceiptRepository) Update(ctx context.Context, receipt *entity.GoodsReceipt) error {
	query := `
		UPDATE goods_receipts
		SET status = ?, finalized_at = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		string(receipt.Status), receipt.FinalizedAt, receipt.ID, receipt.Version)
	if err != nil {
		r.logger.Error("Failed to update goods receipt", zap.Int64("id", receipt.ID), zap.Error(err))
		return fmt.Errorf("failed to update goods receipt: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: goods receipt %d at version %d", port.ErrVersionConflict, receipt.ID, receipt.Version)
	}
	receipt.Version++

	for _, line := range receipt.Lines {
		_, err := getExecutor(ctx, r.db).ExecContext(ctx, `
			UPDATE goods_receipt_lines
			SET received_qty = ?, conforming_qty = ?, non_conforming_qty = ?, reason = ?
			WHERE id = ? AND receipt_id = ?
		`, line.ReceivedQty.String(), line.ConformingQty.String(),
			line.NonConformingQty.String(), line.Reason, line.ID, receipt.ID)
		if err != nil {
			return fmt.Errorf("failed to update receipt line: %w", err)
		}
	}
	return nil
}

func (r *GoodsReceiptRepository) scanReceipt(row rowScanner) (*entity.GoodsReceipt, error) {
	var receipt entity.GoodsReceipt
	var status string

	err := row.Scan(&receipt.ID, &receipt.Number, &receipt.OrderID, &receipt.ReceiverID,
		&receipt.DepotID, &status, &receipt.Version, &receipt.FinalizedAt,
		&receipt.CreatedAt, &receipt.UpdatedAt)
	if err != nil {
		return nil, err
	}

	receipt.Status = entity.ReceiptStatus(status)
	return &receipt, nil
}

func (r *GoodsReceiptRepository) loadLines(ctx context.Context, receiptID int64) ([]entity.ReceiptLine, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT id, receipt_id, article_code, ordered_qty, received_qty,
			conforming_qty, non_conforming_qty, unit_cost, reason
		FROM goods_receipt_lines
		WHERE receipt_id = ?
		ORDER BY id
	`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt lines: %w", err)
	}
	defer rows.Close()

	var lines []entity.ReceiptLine
	for rows.Next() {
		var line entity.ReceiptLine
		var ordered, received, conforming, nonConforming, unitCost string
		if err := rows.Scan(&line.ID, &line.ReceiptID, &line.ArticleCode,
			&ordered, &received, &conforming, &nonConforming, &unitCost, &line.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan receipt line: %w", err)
		}
		if line.OrderedQty, err = decimal.NewFromString(ordered); err != nil {
			return nil, fmt.Errorf("invalid ordered qty %q: %w", ordered, err)
		}
		if line.ReceivedQty, err = decimal.NewFromString(received); err != nil {
			return nil, fmt.Errorf("invalid received qty %q: %w", received, err)
		}
		if line.ConformingQty, err = decimal.NewFromString(conforming); err != nil {
			return nil, fmt.Errorf("invalid conforming qty %q: %w", conforming, err)
		}
		if line.NonConformingQty, err = decimal.NewFromString(nonConforming); err != nil {
			return nil, fmt.Errorf("invalid non-conforming qty %q: %w", nonConforming, err)
		}
		if line.UnitCost, err = decimal.NewFromString(unitCost); err != nil {
			return nil, fmt.Errorf("invalid unit cost %q: %w", unitCost, err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
