package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/domain/entity"
)

// ProformaRepository implements port.ProformaRepository
type ProformaRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProformaRepository creates a new proforma repository
func NewProformaRepository(db *sql.DB, logger *zap.Logger) port.ProformaRepository {
	return &ProformaRepository{db: db, logger: logger}
}

// Create persists a new proforma. The partial unique index on
// (request_id) WHERE status != 'REJECTED' backs the one-active-proforma
// invariant even under concurrent creation.
func (r *ProformaRepository) Create(ctx context.Context, proforma *entity.Proforma) error {
	query := `
		INSERT INTO proformas (number, request_id, supplier_id, status, version)
		VALUES (?, ?, ?, ?, 1)
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		proforma.Number, proforma.RequestID, proforma.SupplierID, string(proforma.Status))
	if err != nil {
		r.logger.Error("Failed to create proforma", zap.Error(err))
		return fmt.Errorf("failed to create proforma: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	proforma.ID = id
	proforma.Version = 1
	return nil
}

// GetByID retrieves a proforma
func (r *ProformaRepository) GetByID(ctx context.Context, id int64) (*entity.Proforma, error) {
	query := `
		SELECT id, number, request_id, supplier_id, status, version, created_at, updated_at
		FROM proformas
		WHERE id = ?
	`
	proforma, err := r.scanProforma(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: proforma %d", port.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get proforma", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get proforma: %w", err)
	}
	return proforma, nil
}

// GetActiveByRequest returns the non-rejected proforma for a request, or nil
func (r *ProformaRepository) GetActiveByRequest(ctx context.Context, requestID int64) (*entity.Proforma, error) {
	query := `
		SELECT id, number, request_id, supplier_id, status, version, created_at, updated_at
		FROM proformas
		WHERE request_id = ? AND status != ?
	`
	proforma, err := r.scanProforma(getExecutor(ctx, r.db).QueryRowContext(ctx, query,
		requestID, string(entity.ProformaStatusRejected)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active proforma: %w", err)
	}
	return proforma, nil
}

// Update applies a compare-and-swap on the row version
func (r *ProformaRepository) Update(ctx context.Context, proforma *entity.Proforma) error {
	query := `
		UPDATE proformas
		SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		string(proforma.Status), proforma.ID, proforma.Version)
	if err != nil {
		r.logger.Error("Failed to update proforma", zap.Int64("id", proforma.ID), zap.Error(err))
		return fmt.Errorf("failed to update proforma: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: proforma %d at version %d", port.ErrVersionConflict, proforma.ID, proforma.Version)
	}
	proforma.Version++
	return nil
}

func (r *ProformaRepository) scanProforma(row rowScanner) (*entity.Proforma, error) {
	var proforma entity.Proforma
	var status string

	err := row.Scan(&proforma.ID, &proforma.Number, &proforma.RequestID,
		&proforma.SupplierID, &status, &proforma.Version, &proforma.CreatedAt, &proforma.UpdatedAt)
	if err != nil {
		return nil, err
	}
	proforma.Status = entity.ProformaStatus(status)
	return &proforma, nil
}
