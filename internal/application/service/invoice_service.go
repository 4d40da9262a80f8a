package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/domain/approval"
	"github.com/oumarfall/procureflow/internal/domain/entity"
	"github.com/oumarfall/procureflow/internal/domain/match"
	"github.com/oumarfall/procureflow/internal/domain/workflow"
)

// Supplier invoice triggers
const (
	triggerInvoiceValidate workflow.Trigger = "VALIDATE"
	triggerInvoiceUnblock  workflow.Trigger = "UNBLOCK"
)

// InvoiceLineInput is one invoiced article on creation
type InvoiceLineInput struct {
	ArticleCode string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// CreateInvoiceInput carries the data for a new supplier invoice
type CreateInvoiceInput struct {
	SupplierID int64
	OrderID    *int64
	TotalTTC   decimal.Decimal
	Lines      []InvoiceLineInput
}

// SupplierInvoiceService manages invoice reconciliation and validation. The
// three-way match runs on creation and on demand; a mismatch blocks the
// invoice without failing the transaction that computed it.
type SupplierInvoiceService interface {
	Create(ctx context.Context, actor entity.Actor, input CreateInvoiceInput) (*entity.SupplierInvoice, error)
	Get(ctx context.Context, id int64) (*entity.SupplierInvoice, error)
	RerunMatch(ctx context.Context, id int64, actor entity.Actor) (*entity.SupplierInvoice, error)
	Validate(ctx context.Context, id int64, actor entity.Actor) (*entity.SupplierInvoice, error)
	Unblock(ctx context.Context, id int64, actor entity.Actor, justification string) (*entity.SupplierInvoice, error)
}

type invoiceService struct {
	invoices  port.SupplierInvoiceRepository
	orders    port.PurchaseOrderRepository
	receipts  port.GoodsReceiptRepository
	txManager port.TransactionManager
	numbering *Numbering
	trail     *auditTrail
	logger    Logger
}

// NewSupplierInvoiceService creates a new SupplierInvoiceService
func NewSupplierInvoiceService(
	invoices port.SupplierInvoiceRepository,
	orders port.PurchaseOrderRepository,
	receipts port.GoodsReceiptRepository,
	txManager port.TransactionManager,
	numbering *Numbering,
	audit port.AuditLogger,
	logger Logger,
) SupplierInvoiceService {
	return &invoiceService{
		invoices:  invoices,
		orders:    orders,
		receipts:  receipts,
		txManager: txManager,
		numbering: numbering,
		trail:     newAuditTrail(audit, logger),
		logger:    logger,
	}
}

// Create persists the invoice and immediately runs the three-way match; a
// mismatch produces a BLOCKED invoice, not an error
func (s *invoiceService) Create(ctx context.Context, actor entity.Actor, input CreateInvoiceInput) (*entity.SupplierInvoice, error) {
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("supplier invoice must have at least one line")
	}
	if input.TotalTTC.IsNegative() {
		return nil, fmt.Errorf("invoice total must not be negative")
	}

	invoice := &entity.SupplierInvoice{
		SupplierID: input.SupplierID,
		OrderID:    input.OrderID,
		TotalTTC:   input.TotalTTC,
		Status:     entity.InvoiceStatusPending,
	}
	for _, line := range input.Lines {
		if !line.Quantity.IsPositive() {
			return nil, fmt.Errorf("invoice line %s: quantity must be positive", line.ArticleCode)
		}
		invoice.Lines = append(invoice.Lines, entity.InvoiceLine{
			ArticleCode: line.ArticleCode,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		result, err := s.reconcile(ctx, invoice)
		if err != nil {
			return err
		}
		invoice.MatchOK = result.OK
		invoice.DiscrepancyReport = result.Report()
		if !result.OK {
			invoice.Status = entity.InvoiceStatusBlocked
		}

		number, err := s.numbering.Next(ctx, entity.DocTypeSupplierInvoice)
		if err != nil {
			return err
		}
		invoice.Number = number
		return s.invoices.Create(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Supplier invoice created",
		"id", invoice.ID, "number", invoice.Number, "match_ok", invoice.MatchOK, "status", string(invoice.Status))
	s.trail.record(ctx, actor, entity.DocTypeSupplierInvoice, invoice.ID, "CREATE", "", string(invoice.Status), invoice.DiscrepancyReport)
	return invoice, nil
}

// Get retrieves an invoice with its lines
func (s *invoiceService) Get(ctx context.Context, id int64) (*entity.SupplierInvoice, error) {
	return s.invoices.GetByID(ctx, id)
}

// RerunMatch recomputes the verdict from current receipt data. A fresh
// mismatch blocks a PENDING or VALIDATED invoice; a blocked invoice stays
// blocked until explicitly unblocked, whatever the new verdict.
func (s *invoiceService) RerunMatch(ctx context.Context, id int64, actor entity.Actor) (*entity.SupplierInvoice, error) {
	var invoice *entity.SupplierInvoice
	var before entity.InvoiceStatus

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.invoices.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if invoice.Status == entity.InvoiceStatusPaid {
			return fmt.Errorf("%w: invoice %s is paid", workflow.ErrInvalidTransition, invoice.Number)
		}
		before = invoice.Status

		result, err := s.reconcile(ctx, invoice)
		if err != nil {
			return err
		}
		invoice.MatchOK = result.OK
		invoice.DiscrepancyReport = result.Report()
		if !result.OK && invoice.Status != entity.InvoiceStatusBlocked {
			invoice.Status = entity.InvoiceStatusBlocked
		}
		return s.invoices.Update(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Three-way match rerun",
		"invoice_id", invoice.ID, "match_ok", invoice.MatchOK, "status", string(invoice.Status))
	s.trail.record(ctx, actor, entity.DocTypeSupplierInvoice, invoice.ID, "RERUN_MATCH", string(before), string(invoice.Status), invoice.DiscrepancyReport)
	return invoice, nil
}

// Validate releases a matched invoice for payment. The validator must not
// appear as receiver on any receipt of the invoice's order.
func (s *invoiceService) Validate(ctx context.Context, id int64, actor entity.Actor) (*entity.SupplierInvoice, error) {
	var invoice *entity.SupplierInvoice
	var before entity.InvoiceStatus

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.invoices.GetByID(ctx, id)
		if err != nil {
			return err
		}
		before = invoice.Status

		receiverIDs, err := s.receiverIDs(ctx, invoice)
		if err != nil {
			return err
		}

		builder := workflow.NewBuilder()
		builder.Configure(workflow.State(entity.InvoiceStatusPending)).
			PermitIf(triggerInvoiceValidate, workflow.State(entity.InvoiceStatusValidated), func(ctx context.Context) error {
				if !invoice.MatchOK {
					return fmt.Errorf("%w: invoice %s has unresolved discrepancies: %s",
						workflow.ErrInvalidTransition, invoice.Number, invoice.DiscrepancyReport)
				}
				if coi := approval.CheckInvoiceValidator(actor.ID, receiverIDs); coi != nil {
					return coi
				}
				return nil
			})
		machine := builder.Build(workflow.State(invoice.Status))

		if err := machine.Fire(ctx, triggerInvoiceValidate); err != nil {
			return err
		}
		invoice.Status = entity.InvoiceStatus(machine.State())
		validatorID := actor.ID
		invoice.ValidatorID = &validatorID
		return s.invoices.Update(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Supplier invoice validated", "id", invoice.ID, "validator_id", actor.ID)
	s.trail.record(ctx, actor, entity.DocTypeSupplierInvoice, invoice.ID, "VALIDATE", string(before), string(invoice.Status), "")
	return invoice, nil
}

// Unblock re-enables validation after manual resolution of a discrepancy.
// The justification is mandatory and recorded; the resolved discrepancy
// report is cleared so the persisted row never reads as matched while still
// carrying findings.
func (s *invoiceService) Unblock(ctx context.Context, id int64, actor entity.Actor, justification string) (*entity.SupplierInvoice, error) {
	if justification == "" {
		return nil, fmt.Errorf("unblock justification is required")
	}

	var invoice *entity.SupplierInvoice
	var before entity.InvoiceStatus

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.invoices.GetByID(ctx, id)
		if err != nil {
			return err
		}
		before = invoice.Status

		builder := workflow.NewBuilder()
		builder.Configure(workflow.State(entity.InvoiceStatusBlocked)).
			Permit(triggerInvoiceUnblock, workflow.State(entity.InvoiceStatusPending))
		machine := builder.Build(workflow.State(invoice.Status))

		if err := machine.Fire(ctx, triggerInvoiceUnblock); err != nil {
			return err
		}
		invoice.Status = entity.InvoiceStatus(machine.State())
		invoice.MatchOK = true
		invoice.DiscrepancyReport = ""
		return s.invoices.Update(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Supplier invoice unblocked", "id", invoice.ID, "justification", justification)
	s.trail.record(ctx, actor, entity.DocTypeSupplierInvoice, invoice.ID, "UNBLOCK", string(before), string(invoice.Status), justification)
	return invoice, nil
}

// reconcile loads the order and its receipts and runs the three-way match
func (s *invoiceService) reconcile(ctx context.Context, invoice *entity.SupplierInvoice) (match.Result, error) {
	var order *entity.PurchaseOrder
	var receipts []*entity.GoodsReceipt

	if invoice.OrderID != nil {
		var err error
		order, err = s.orders.GetByID(ctx, *invoice.OrderID)
		if err != nil {
			return match.Result{}, err
		}
		receipts, err = s.receipts.ListByOrder(ctx, *invoice.OrderID)
		if err != nil {
			return match.Result{}, err
		}
	}

	return match.Reconcile(order, receipts, invoice), nil
}

// receiverIDs collects the receivers across all receipts of the invoice's order
func (s *invoiceService) receiverIDs(ctx context.Context, invoice *entity.SupplierInvoice) ([]int64, error) {
	if invoice.OrderID == nil {
		return nil, nil
	}
	receipts, err := s.receipts.ListByOrder(ctx, *invoice.OrderID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(receipts))
	for _, receipt := range receipts {
		ids = append(ids, receipt.ReceiverID)
	}
	return ids, nil
}
