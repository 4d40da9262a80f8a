package service

import (
	"context"
	"time"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/domain/entity"
)

// auditTrail records committed transitions through the audit collaborator.
// Recording is best-effort: a failure is logged and swallowed so it can
// never undo a committed business transition.
type auditTrail struct {
	audit  port.AuditLogger
	logger Logger
}

func newAuditTrail(audit port.AuditLogger, logger Logger) *auditTrail {
	return &auditTrail{audit: audit, logger: logger}
}

func (t *auditTrail) record(ctx context.Context, actor entity.Actor, docType entity.DocType, entityID int64, action, before, after, note string) {
	if t.audit == nil {
		return
	}

	entry := &port.AuditEntry{
		ActorID:    actor.ID,
		EntityType: docType.String(),
		EntityID:   entityID,
		Action:     action,
		Before:     before,
		After:      after,
		Note:       note,
		At:         time.Now(),
	}

	if err := t.audit.LogAction(ctx, entry); err != nil {
		t.logger.Error("Failed to record audit entry",
			"entity_type", docType.String(),
			"entity_id", entityID,
			"action", action,
			"error", err)
	}
}
