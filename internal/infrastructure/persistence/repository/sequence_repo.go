package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/domain/entity"
)

// SequenceRepository implements port.SequenceRepository on top of the
// document_sequences table
type SequenceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(db *sql.DB, logger *zap.Logger) port.SequenceRepository {
	return &SequenceRepository{db: db, logger: logger}
}

// Next increments and returns the counter for (docType, period) in one
// statement, so concurrent callers never observe the same value
func (r *SequenceRepository) Next(ctx context.Context, docType entity.DocType, period string) (int64, error) {
	query := `
		INSERT INTO document_sequences (doc_type, period, next_value)
		VALUES (?, ?, 1)
		ON CONFLICT (doc_type, period) DO UPDATE SET next_value = next_value + 1
		RETURNING next_value
	`
	var value int64
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, string(docType), period).Scan(&value)
	if err != nil {
		r.logger.Error("Failed to advance document sequence",
			zap.String("doc_type", string(docType)), zap.String("period", period), zap.Error(err))
		return 0, fmt.Errorf("failed to advance document sequence: %w", err)
	}
	return value, nil
}
