package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/domain/entity"
)

// ApprovalRecordRepository implements port.ApprovalRecordRepository.
// The table is append-only: there is no update or delete path.
type ApprovalRecordRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRecordRepository creates a new approval record repository
func NewApprovalRecordRepository(db *sql.DB, logger *zap.Logger) port.ApprovalRecordRepository {
	return &ApprovalRecordRepository{db: db, logger: logger}
}

// Create appends one decision to the request's approval chain
func (r *ApprovalRecordRepository) Create(ctx context.Context, record *entity.ApprovalRecord) error {
	query := `
		INSERT INTO approval_records (request_id, approver_id, level, decision, comment)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		record.RequestID, record.ApproverID, record.Level, string(record.Decision), record.Comment)
	if err != nil {
		r.logger.Error("Failed to create approval record", zap.Error(err))
		return fmt.Errorf("failed to create approval record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	record.ID = id
	return nil
}

// ListByRequest returns the chain in decision order
func (r *ApprovalRecordRepository) ListByRequest(ctx context.Context, requestID int64) ([]*entity.ApprovalRecord, error) {
	query := `
		SELECT id, request_id, approver_id, level, decision, comment, created_at
		FROM approval_records
		WHERE request_id = ?
		ORDER BY id
	`
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval records: %w", err)
	}
	defer rows.Close()

	var records []*entity.ApprovalRecord
	for rows.Next() {
		var record entity.ApprovalRecord
		var decision string
		if err := rows.Scan(&record.ID, &record.RequestID, &record.ApproverID,
			&record.Level, &decision, &record.Comment, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval record: %w", err)
		}
		record.Decision = entity.ApprovalDecision(decision)
		records = append(records, &record)
	}
	return records, rows.Err()
}
