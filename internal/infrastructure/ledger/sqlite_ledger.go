// Package ledger is the stock costing boundary. Receipt finalization posts
// one inbound movement per conforming line; nothing here is ever read back
// by the approval engine.
package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/pkg/database"
)

// SQLiteStockLedger implements port.StockLedger on the stock_movements table
type SQLiteStockLedger struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStockLedger creates a new sqlite stock ledger
func NewSQLiteStockLedger(db *sql.DB, logger *zap.Logger) port.StockLedger {
	return &SQLiteStockLedger{db: db, logger: logger}
}

// PostReceipt records one inbound movement and returns its identifier.
// It participates in the caller's transaction when one is in the context,
// so the movement commits or rolls back with the receipt finalization.
func (l *SQLiteStockLedger) PostReceipt(ctx context.Context, posting port.ReceiptPosting) (string, error) {
	movementID := uuid.NewString()

	query := `
		INSERT INTO stock_movements (id, article_code, depot_id, quantity, unit_cost, lot, source_document_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	var err error
	if tx := database.ExtractTx(ctx); tx != nil {
		_, err = tx.ExecContext(ctx, query,
			movementID, posting.ArticleCode, posting.DepotID,
			posting.Quantity.String(), posting.UnitCost.String(), posting.Lot, posting.SourceDocumentID)
	} else {
		_, err = l.db.ExecContext(ctx, query,
			movementID, posting.ArticleCode, posting.DepotID,
			posting.Quantity.String(), posting.UnitCost.String(), posting.Lot, posting.SourceDocumentID)
	}
	if err != nil {
		l.logger.Error("Failed to post stock movement",
			zap.String("article_code", posting.ArticleCode),
			zap.Int64("depot_id", posting.DepotID),
			zap.Error(err))
		return "", fmt.Errorf("failed to post stock movement: %w", err)
	}

	l.logger.Debug("Posted stock movement",
		zap.String("movement_id", movementID),
		zap.String("article_code", posting.ArticleCode),
		zap.String("quantity", posting.Quantity.String()))
	return movementID, nil
}
