package service

import (
	"context"
	"fmt"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/domain/entity"
)

// Function-field mocks for the repository ports. Tests set only the fields
// they need; calling an unset field panics, which surfaces unexpected
// interactions immediately.

type mockRequestRepo struct {
	CreateFn       func(ctx context.Context, request *entity.PurchaseRequest) error
	GetByIDFn      func(ctx context.Context, id int64) (*entity.PurchaseRequest, error)
	ListByStatusFn func(ctx context.Context, status entity.RequestStatus) ([]*entity.PurchaseRequest, error)
	UpdateFn       func(ctx context.Context, request *entity.PurchaseRequest) error
}

func (m *mockRequestRepo) Create(ctx context.Context, request *entity.PurchaseRequest) error {
	return m.CreateFn(ctx, request)
}
func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*entity.PurchaseRequest, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockRequestRepo) ListByStatus(ctx context.Context, status entity.RequestStatus) ([]*entity.PurchaseRequest, error) {
	return m.ListByStatusFn(ctx, status)
}
func (m *mockRequestRepo) Update(ctx context.Context, request *entity.PurchaseRequest) error {
	return m.UpdateFn(ctx, request)
}

type mockRecordRepo struct {
	CreateFn        func(ctx context.Context, record *entity.ApprovalRecord) error
	ListByRequestFn func(ctx context.Context, requestID int64) ([]*entity.ApprovalRecord, error)
}

func (m *mockRecordRepo) Create(ctx context.Context, record *entity.ApprovalRecord) error {
	return m.CreateFn(ctx, record)
}
func (m *mockRecordRepo) ListByRequest(ctx context.Context, requestID int64) ([]*entity.ApprovalRecord, error) {
	return m.ListByRequestFn(ctx, requestID)
}

type mockProformaRepo struct {
	CreateFn             func(ctx context.Context, proforma *entity.Proforma) error
	GetByIDFn            func(ctx context.Context, id int64) (*entity.Proforma, error)
	GetActiveByRequestFn func(ctx context.Context, requestID int64) (*entity.Proforma, error)
	UpdateFn             func(ctx context.Context, proforma *entity.Proforma) error
}

func (m *mockProformaRepo) Create(ctx context.Context, proforma *entity.Proforma) error {
	return m.CreateFn(ctx, proforma)
}
func (m *mockProformaRepo) GetByID(ctx context.Context, id int64) (*entity.Proforma, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockProformaRepo) GetActiveByRequest(ctx context.Context, requestID int64) (*entity.Proforma, error) {
	return m.GetActiveByRequestFn(ctx, requestID)
}
func (m *mockProformaRepo) Update(ctx context.Context, proforma *entity.Proforma) error {
	return m.UpdateFn(ctx, proforma)
}

type mockOrderRepo struct {
	CreateFn       func(ctx context.Context, order *entity.PurchaseOrder) error
	GetByIDFn      func(ctx context.Context, id int64) (*entity.PurchaseOrder, error)
	ListByStatusFn func(ctx context.Context, status entity.OrderStatus) ([]*entity.PurchaseOrder, error)
	UpdateFn       func(ctx context.Context, order *entity.PurchaseOrder) error
}

func (m *mockOrderRepo) Create(ctx context.Context, order *entity.PurchaseOrder) error {
	return m.CreateFn(ctx, order)
}
func (m *mockOrderRepo) GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockOrderRepo) ListByStatus(ctx context.Context, status entity.OrderStatus) ([]*entity.PurchaseOrder, error) {
	return m.ListByStatusFn(ctx, status)
}
func (m *mockOrderRepo) Update(ctx context.Context, order *entity.PurchaseOrder) error {
	return m.UpdateFn(ctx, order)
}

type mockReceiptRepo struct {
	CreateFn      func(ctx context.Context, receipt *entity.GoodsReceipt) error
	GetByIDFn     func(ctx context.Context, id int64) (*entity.GoodsReceipt, error)
	ListByOrderFn func(ctx context.Context, orderID int64) ([]*entity.GoodsReceipt, error)
	UpdateFn      func(ctx context.Context, receipt *entity.GoodsReceipt) error
}

func (m *mockReceiptRepo) Create(ctx context.Context, receipt *entity.GoodsReceipt) error {
	return m.CreateFn(ctx, receipt)
}
func (m *mockReceiptRepo) GetByID(ctx context.Context, id int64) (*entity.GoodsReceipt, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockReceiptRepo) ListByOrder(ctx context.Context, orderID int64) ([]*entity.GoodsReceipt, error) {
	return m.ListByOrderFn(ctx, orderID)
}
func (m *mockReceiptRepo) Update(ctx context.Context, receipt *entity.GoodsReceipt) error {
	return m.UpdateFn(ctx, receipt)
}

type mockInvoiceRepo struct {
	CreateFn       func(ctx context.Context, invoice *entity.SupplierInvoice) error
	GetByIDFn      func(ctx context.Context, id int64) (*entity.SupplierInvoice, error)
	ListByStatusFn func(ctx context.Context, status entity.InvoiceStatus) ([]*entity.SupplierInvoice, error)
	UpdateFn       func(ctx context.Context, invoice *entity.SupplierInvoice) error
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *entity.SupplierInvoice) error {
	return m.CreateFn(ctx, invoice)
}
func (m *mockInvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.SupplierInvoice, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockInvoiceRepo) ListByStatus(ctx context.Context, status entity.InvoiceStatus) ([]*entity.SupplierInvoice, error) {
	return m.ListByStatusFn(ctx, status)
}
func (m *mockInvoiceRepo) Update(ctx context.Context, invoice *entity.SupplierInvoice) error {
	return m.UpdateFn(ctx, invoice)
}

type mockPaymentRepo struct {
	CreateFn        func(ctx context.Context, payment *entity.Payment) error
	GetByIDFn       func(ctx context.Context, id int64) (*entity.Payment, error)
	ListByInvoiceFn func(ctx context.Context, invoiceID int64) ([]*entity.Payment, error)
	UpdateFn        func(ctx context.Context, payment *entity.Payment) error
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	return m.CreateFn(ctx, payment)
}
func (m *mockPaymentRepo) GetByID(ctx context.Context, id int64) (*entity.Payment, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockPaymentRepo) ListByInvoice(ctx context.Context, invoiceID int64) ([]*entity.Payment, error) {
	return m.ListByInvoiceFn(ctx, invoiceID)
}
func (m *mockPaymentRepo) Update(ctx context.Context, payment *entity.Payment) error {
	return m.UpdateFn(ctx, payment)
}

// mockSequenceRepo hands out per-type counters in memory
type mockSequenceRepo struct {
	counters map[string]int64
}

func newMockSequenceRepo() *mockSequenceRepo {
	return &mockSequenceRepo{counters: make(map[string]int64)}
}

func (m *mockSequenceRepo) Next(ctx context.Context, docType entity.DocType, period string) (int64, error) {
	key := string(docType) + "|" + period
	m.counters[key]++
	return m.counters[key], nil
}

// mockTxManager runs the function inline; the services under test treat
// the callback's error as the commit/rollback signal
type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockLedger struct {
	Postings []port.ReceiptPosting
	Err      error
}

func (m *mockLedger) PostReceipt(ctx context.Context, posting port.ReceiptPosting) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Postings = append(m.Postings, posting)
	return fmt.Sprintf("mov-%d", len(m.Postings)), nil
}

type mockAudit struct {
	Entries []*port.AuditEntry
}

func (m *mockAudit) LogAction(ctx context.Context, entry *port.AuditEntry) error {
	m.Entries = append(m.Entries, entry)
	return nil
}

// nopLogger discards everything
type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func testNumbering() *Numbering {
	return NewNumbering(newMockSequenceRepo(), nil)
}
