package port

import (
	"context"

	"github.com/oumarfall/procureflow/internal/domain/entity"
)

// Repositories load and persist document aggregates. Reads return the
// aggregate with its lines; Update applies a compare-and-swap on the row
// version and returns ErrVersionConflict when the document changed since it
// was read. Cross-document links are plain identifiers resolved through
// these interfaces; no loaded object graph is ever assumed.

// PurchaseRequestRepository persists purchase requests and their lines
type PurchaseRequestRepository interface {
	Create(ctx context.Context, request *entity.PurchaseRequest) error
	GetByID(ctx context.Context, id int64) (*entity.PurchaseRequest, error)
	ListByStatus(ctx context.Context, status entity.RequestStatus) ([]*entity.PurchaseRequest, error)
	Update(ctx context.Context, request *entity.PurchaseRequest) error
}

// ApprovalRecordRepository persists the append-only approval history
type ApprovalRecordRepository interface {
	Create(ctx context.Context, record *entity.ApprovalRecord) error
	ListByRequest(ctx context.Context, requestID int64) ([]*entity.ApprovalRecord, error)
}

// ProformaRepository persists proformas
type ProformaRepository interface {
	Create(ctx context.Context, proforma *entity.Proforma) error
	GetByID(ctx context.Context, id int64) (*entity.Proforma, error)
	// GetActiveByRequest returns the non-superseded (non-rejected) proforma
	// for a request, or nil when none exists
	GetActiveByRequest(ctx context.Context, requestID int64) (*entity.Proforma, error)
	Update(ctx context.Context, proforma *entity.Proforma) error
}

// PurchaseOrderRepository persists purchase orders and their lines
type PurchaseOrderRepository interface {
	Create(ctx context.Context, order *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error)
	ListByStatus(ctx context.Context, status entity.OrderStatus) ([]*entity.PurchaseOrder, error)
	Update(ctx context.Context, order *entity.PurchaseOrder) error
}

// GoodsReceiptRepository persists goods receipts and their lines
type GoodsReceiptRepository interface {
	Create(ctx context.Context, receipt *entity.GoodsReceipt) error
	GetByID(ctx context.Context, id int64) (*entity.GoodsReceipt, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*entity.GoodsReceipt, error)
	Update(ctx context.Context, receipt *entity.GoodsReceipt) error
}

// SupplierInvoiceRepository persists supplier invoices and their lines
type SupplierInvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.SupplierInvoice) error
	GetByID(ctx context.Context, id int64) (*entity.SupplierInvoice, error)
	ListByStatus(ctx context.Context, status entity.InvoiceStatus) ([]*entity.SupplierInvoice, error)
	Update(ctx context.Context, invoice *entity.SupplierInvoice) error
}

// PaymentRepository persists payments
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id int64) (*entity.Payment, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]*entity.Payment, error)
	Update(ctx context.Context, payment *entity.Payment) error
}

// SequenceRepository hands out document numbers. Next is a single atomic
// increment-and-fetch inside the caller's transaction, never a
// read-then-write; numbers are unique per (docType, period) and never
// reused, even after deletion or cancellation.
type SequenceRepository interface {
	Next(ctx context.Context, docType entity.DocType, period string) (int64, error)
}

// TransactionManager scopes a function to one all-or-nothing transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
