package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/domain/approval"
	"github.com/oumarfall/procureflow/internal/domain/entity"
	"github.com/oumarfall/procureflow/internal/domain/workflow"
)

type invoiceFixture struct {
	service  SupplierInvoiceService
	audit    *mockAudit
	order    *entity.PurchaseOrder
	receipts []*entity.GoodsReceipt
	stored   *entity.SupplierInvoice
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()
	f := &invoiceFixture{audit: &mockAudit{}}

	// Order for 10x ART-A at 100 HT, TTC 1180; fully received conforming
	f.order = &entity.PurchaseOrder{
		ID:       3,
		Number:   "BC-20240315-0001",
		Status:   entity.OrderStatusSent,
		TotalTTC: decimal.RequireFromString("1180.00"),
		Lines: []entity.OrderLine{
			{ArticleCode: "ART-A", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(100)},
		},
	}
	f.receipts = []*entity.GoodsReceipt{{
		ID: 1, OrderID: 3, ReceiverID: 5, Status: entity.ReceiptStatusComplete,
		Lines: []entity.ReceiptLine{{
			ArticleCode: "ART-A",
			OrderedQty:  decimal.NewFromInt(10), ReceivedQty: decimal.NewFromInt(10),
			ConformingQty: decimal.NewFromInt(10), NonConformingQty: decimal.Zero,
		}},
	}}

	invoices := &mockInvoiceRepo{
		CreateFn: func(ctx context.Context, invoice *entity.SupplierInvoice) error {
			invoice.ID = 7
			f.stored = invoice
			return nil
		},
		GetByIDFn: func(ctx context.Context, id int64) (*entity.SupplierInvoice, error) {
			if f.stored == nil {
				return nil, port.ErrNotFound
			}
			return f.stored, nil
		},
		UpdateFn: func(ctx context.Context, invoice *entity.SupplierInvoice) error {
			f.stored = invoice
			return nil
		},
	}
	orders := &mockOrderRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
			return f.order, nil
		},
	}
	receipts := &mockReceiptRepo{
		ListByOrderFn: func(ctx context.Context, orderID int64) ([]*entity.GoodsReceipt, error) {
			return f.receipts, nil
		},
	}
	f.service = NewSupplierInvoiceService(
		invoices, orders, receipts, &mockTxManager{}, testNumbering(), f.audit, nopLogger{})
	return f
}

func matchedInvoiceInput() CreateInvoiceInput {
	orderID := int64(3)
	return CreateInvoiceInput{
		SupplierID: 20,
		OrderID:    &orderID,
		TotalTTC:   decimal.RequireFromString("1180.00"),
		Lines: []InvoiceLineInput{
			{ArticleCode: "ART-A", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(100)},
		},
	}
}

func TestInvoiceService_CreateMatched(t *testing.T) {
	f := newInvoiceFixture(t)

	invoice, err := f.service.Create(context.Background(), entity.Actor{ID: 8}, matchedInvoiceInput())
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPending, invoice.Status)
	assert.True(t, invoice.MatchOK)
	assert.Empty(t, invoice.DiscrepancyReport)
	assert.NotEmpty(t, invoice.Number)
}

func TestInvoiceService_CreateMismatchBlocksWithoutError(t *testing.T) {
	f := newInvoiceFixture(t)
	input := matchedInvoiceInput()
	input.Lines[0].Quantity = decimal.NewFromInt(12) // more than the 10 received

	invoice, err := f.service.Create(context.Background(), entity.Actor{ID: 8}, input)
	require.NoError(t, err, "a mismatch is a verdict, not a failure")
	assert.Equal(t, entity.InvoiceStatusBlocked, invoice.Status)
	assert.False(t, invoice.MatchOK)
	assert.Contains(t, invoice.DiscrepancyReport, "ART-A")
}

func TestInvoiceService_CreateAmountMismatchBlocks(t *testing.T) {
	f := newInvoiceFixture(t)
	input := matchedInvoiceInput()
	input.TotalTTC = decimal.RequireFromString("1180.02") // beyond tolerance

	invoice, err := f.service.Create(context.Background(), entity.Actor{ID: 8}, input)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusBlocked, invoice.Status)
}

func TestInvoiceService_CreateRejectsBadInput(t *testing.T) {
	f := newInvoiceFixture(t)

	_, err := f.service.Create(context.Background(), entity.Actor{ID: 8}, CreateInvoiceInput{
		SupplierID: 20, TotalTTC: decimal.NewFromInt(100),
	})
	assert.ErrorContains(t, err, "at least one line")

	input := matchedInvoiceInput()
	input.TotalTTC = decimal.NewFromInt(-1)
	_, err = f.service.Create(context.Background(), entity.Actor{ID: 8}, input)
	assert.ErrorContains(t, err, "must not be negative")
}

func TestInvoiceService_RerunMatchBlocksOnNewDiscrepancy(t *testing.T) {
	f := newInvoiceFixture(t)
	invoice, err := f.service.Create(context.Background(), entity.Actor{ID: 8}, matchedInvoiceInput())
	require.NoError(t, err)
	require.True(t, invoice.MatchOK)

	// The receipt counts are revised downward after investigation
	f.receipts[0].Lines[0].ConformingQty = decimal.NewFromInt(8)
	f.receipts[0].Lines[0].NonConformingQty = decimal.NewFromInt(2)

	invoice, err = f.service.RerunMatch(context.Background(), 7, entity.Actor{ID: 8})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusBlocked, invoice.Status)
	assert.False(t, invoice.MatchOK)
	assert.Contains(t, invoice.DiscrepancyReport, "ART-A")
}

func TestInvoiceService_RerunMatchOnPaidRefused(t *testing.T) {
	f := newInvoiceFixture(t)
	_, err := f.service.Create(context.Background(), entity.Actor{ID: 8}, matchedInvoiceInput())
	require.NoError(t, err)
	f.stored.Status = entity.InvoiceStatusPaid

	_, err = f.service.RerunMatch(context.Background(), 7, entity.Actor{ID: 8})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestInvoiceService_RerunMatchKeepsBlockedBlocked(t *testing.T) {
	f := newInvoiceFixture(t)
	input := matchedInvoiceInput()
	input.Lines[0].Quantity = decimal.NewFromInt(12)
	_, err := f.service.Create(context.Background(), entity.Actor{ID: 8}, input)
	require.NoError(t, err)
	require.Equal(t, entity.InvoiceStatusBlocked, f.stored.Status)

	// Fix the underlying data so the match now passes
	f.stored.Lines[0].Quantity = decimal.NewFromInt(10)

	invoice, err := f.service.RerunMatch(context.Background(), 7, entity.Actor{ID: 8})
	require.NoError(t, err)
	assert.True(t, invoice.MatchOK)
	assert.Equal(t, entity.InvoiceStatusBlocked, invoice.Status, "release requires an explicit unblock")
}

func TestInvoiceService_Validate(t *testing.T) {
	f := newInvoiceFixture(t)
	_, err := f.service.Create(context.Background(), entity.Actor{ID: 8}, matchedInvoiceInput())
	require.NoError(t, err)

	invoice, err := f.service.Validate(context.Background(), 7, entity.Actor{ID: 9})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusValidated, invoice.Status)
	require.NotNil(t, invoice.ValidatorID)
	assert.Equal(t, int64(9), *invoice.ValidatorID)
}

func TestInvoiceService_ValidateByReceiverRefused(t *testing.T) {
	f := newInvoiceFixture(t)
	_, err := f.service.Create(context.Background(), entity.Actor{ID: 8}, matchedInvoiceInput())
	require.NoError(t, err)

	// Actor 5 received the goods on receipt BR-…-0001
	_, err = f.service.Validate(context.Background(), 7, entity.Actor{ID: 5})
	var coi *approval.ConflictOfInterestError
	require.ErrorAs(t, err, &coi)
	assert.Equal(t, entity.InvoiceStatusPending, f.stored.Status)
}

func TestInvoiceService_ValidateMismatchedRefused(t *testing.T) {
	f := newInvoiceFixture(t)
	input := matchedInvoiceInput()
	input.Lines[0].Quantity = decimal.NewFromInt(12)
	_, err := f.service.Create(context.Background(), entity.Actor{ID: 8}, input)
	require.NoError(t, err)

	_, err = f.service.Validate(context.Background(), 7, entity.Actor{ID: 9})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestInvoiceService_Unblock(t *testing.T) {
	f := newInvoiceFixture(t)
	input := matchedInvoiceInput()
	input.Lines[0].Quantity = decimal.NewFromInt(12)
	_, err := f.service.Create(context.Background(), entity.Actor{ID: 8}, input)
	require.NoError(t, err)

	invoice, err := f.service.Unblock(context.Background(), 7, entity.Actor{ID: 9}, "credit note FA-CN-18 received")
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPending, invoice.Status)
	assert.True(t, invoice.MatchOK)
	assert.Empty(t, invoice.DiscrepancyReport, "resolved findings do not survive the unblock")

	last := f.audit.Entries[len(f.audit.Entries)-1]
	assert.Equal(t, "UNBLOCK", last.Action)
	assert.Equal(t, "credit note FA-CN-18 received", last.Note)
}

func TestInvoiceService_UnblockRequiresJustification(t *testing.T) {
	f := newInvoiceFixture(t)

	_, err := f.service.Unblock(context.Background(), 7, entity.Actor{ID: 9}, "")
	assert.ErrorContains(t, err, "justification is required")
}

func TestInvoiceService_UnblockPendingRefused(t *testing.T) {
	f := newInvoiceFixture(t)
	_, err := f.service.Create(context.Background(), entity.Actor{ID: 8}, matchedInvoiceInput())
	require.NoError(t, err)

	_, err = f.service.Unblock(context.Background(), 7, entity.Actor{ID: 9}, "nothing to resolve")
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}
