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

// PurchaseRequestRepository implements port.PurchaseRequestRepository
type PurchaseRequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPurchaseRequestRepository creates a new purchase request repository
func NewPurchaseRequestRepository(db *sql.DB, logger *zap.Logger) port.PurchaseRequestRepository {
	return &PurchaseRequestRepository{db: db, logger: logger}
}

// Create persists the request and its lines
func (r *PurchaseRequestRepository) Create(ctx context.Context, request *entity.PurchaseRequest) error {
	query := `
		INSERT INTO purchase_requests (number, requester_id, amount, status, version)
		VALUES (?, ?, ?, ?, 1)
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		request.Number, request.RequesterID, request.Amount.String(), string(request.Status))
	if err != nil {
		r.logger.Error("Failed to create purchase request", zap.Error(err))
		return fmt.Errorf("failed to create purchase request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	request.ID = id
	request.Version = 1

	for i := range request.Lines {
		line := &request.Lines[i]
		line.RequestID = id
		lineResult, err := getExecutor(ctx, r.db).ExecContext(ctx, `
			INSERT INTO purchase_request_lines (request_id, article_code, quantity, unit_price)
			VALUES (?, ?, ?, ?)
		`, id, line.ArticleCode, line.Quantity.String(), line.UnitPrice.String())
		if err != nil {
			return fmt.Errorf("failed to create request line: %w", err)
		}
		if line.ID, err = lineResult.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get line insert id: %w", err)
		}
	}
	return nil
}

// GetByID retrieves a request with its lines
func (r *PurchaseRequestRepository) GetByID(ctx context.Context, id int64) (*entity.PurchaseRequest, error) {
	query := `
		SELECT id, number, requester_id, amount, status, version, created_at, updated_at
		FROM purchase_requests
		WHERE id = ?
	`
	request, err := r.scanRequest(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: purchase request %d", port.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get purchase request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get purchase request: %w", err)
	}

	if request.Lines, err = r.loadLines(ctx, id); err != nil {
		return nil, err
	}
	return request, nil
}

// ListByStatus retrieves requests in the given status, without lines
func (r *PurchaseRequestRepository) ListByStatus(ctx context.Context, status entity.RequestStatus) ([]*entity.PurchaseRequest, error) {
	query := `
		SELECT id, number, requester_id, amount, status, version, created_at, updated_at
		FROM purchase_requests
		WHERE status = ?
		ORDER BY id
	`
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.PurchaseRequest
	for rows.Next() {
		request, err := r.scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// Update applies a compare-and-swap on the row version
func (r *PurchaseRequestRepository) Update(ctx context.Context, request *entity.PurchaseRequest) error {
	query := `
		UPDATE purchase_requests
		SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		string(request.Status), request.ID, request.Version)
	if err != nil {
		r.logger.Error("Failed to update purchase request", zap.Int64("id", request.ID), zap.Error(err))
		return fmt.Errorf("failed to update purchase request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: purchase request %d at version %d", port.ErrVersionConflict, request.ID, request.Version)
	}
	request.Version++
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PurchaseRequestRepository) scanRequest(row rowScanner) (*entity.PurchaseRequest, error) {
	var request entity.PurchaseRequest
	var amount, status string

	err := row.Scan(&request.ID, &request.Number, &request.RequesterID,
		&amount, &status, &request.Version, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if request.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	request.Status = entity.RequestStatus(status)
	return &request, nil
}

func (r *PurchaseRequestRepository) loadLines(ctx context.Context, requestID int64) ([]entity.RequestLine, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT id, request_id, article_code, quantity, unit_price
		FROM purchase_request_lines
		WHERE request_id = ?
		ORDER BY id
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request lines: %w", err)
	}
	defer rows.Close()

	var lines []entity.RequestLine
	for rows.Next() {
		var line entity.RequestLine
		var quantity, unitPrice string
		if err := rows.Scan(&line.ID, &line.RequestID, &line.ArticleCode, &quantity, &unitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan request line: %w", err)
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
