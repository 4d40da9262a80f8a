package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AuditEntry records one committed workflow transition
type AuditEntry struct {
	Ref        string // uuid assigned by the audit collaborator
	ActorID    int64
	EntityType string
	EntityID   int64
	Action     string
	Before     string
	After      string
	Note       string
	At         time.Time
}

// AuditLogger records committed transitions. It is called once per
// transition, after commit; a logging failure must never roll back or fail
// the business transition.
type AuditLogger interface {
	LogAction(ctx context.Context, entry *AuditEntry) error
}

// ReceiptPosting is one conforming receipt line handed to the stock ledger
type ReceiptPosting struct {
	ArticleCode      string
	DepotID          int64
	Quantity         decimal.Decimal
	UnitCost         decimal.Decimal
	Lot              string
	SourceDocumentID int64
}

// StockLedger is the costing subsystem boundary. The engine posts exactly
// one movement per finalized receipt line with conforming quantity > 0 and
// never reads the ledger back.
type StockLedger interface {
	PostReceipt(ctx context.Context, posting ReceiptPosting) (movementID string, err error)
}
