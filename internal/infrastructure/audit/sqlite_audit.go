// Package audit persists the committed-transition trail to sqlite.
package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oumarfall/procureflow/internal/application/port"
)

// SQLiteAuditLogger implements port.AuditLogger on the audit_log table.
// Entries are written on the root connection, never inside the business
// transaction, so a failed write cannot undo a committed transition.
type SQLiteAuditLogger struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteAuditLogger creates a new sqlite audit logger
func NewSQLiteAuditLogger(db *sql.DB, logger *zap.Logger) port.AuditLogger {
	return &SQLiteAuditLogger{db: db, logger: logger}
}

// LogAction records one committed transition and assigns its reference
func (a *SQLiteAuditLogger) LogAction(ctx context.Context, entry *port.AuditEntry) error {
	if entry.Ref == "" {
		entry.Ref = uuid.NewString()
	}

	query := `
		INSERT INTO audit_log (ref, actor_id, entity_type, entity_id, action, before_state, after_state, note, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := a.db.ExecContext(ctx, query,
		entry.Ref, entry.ActorID, entry.EntityType, entry.EntityID,
		entry.Action, entry.Before, entry.After, entry.Note, entry.At)
	if err != nil {
		a.logger.Error("Failed to insert audit entry",
			zap.String("entity_type", entry.EntityType),
			zap.Int64("entity_id", entry.EntityID),
			zap.String("action", entry.Action),
			zap.Error(err))
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}
