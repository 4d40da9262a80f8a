package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/domain/entity"
	"github.com/oumarfall/procureflow/internal/domain/workflow"
)

// Payment triggers
const (
	triggerPaymentExecute workflow.Trigger = "EXECUTE"
	triggerPaymentCancel  workflow.Trigger = "CANCEL"
)

// PaymentService settles validated invoices. A payment can only be created
// for a VALIDATED invoice; executing it flips the invoice to PAID in the
// same transaction, and executed payments are immutable history.
type PaymentService interface {
	CreateForInvoice(ctx context.Context, actor entity.Actor, invoiceID int64, amount decimal.Decimal) (*entity.Payment, error)
	Get(ctx context.Context, id int64) (*entity.Payment, error)
	Execute(ctx context.Context, id int64, actor entity.Actor) (*entity.Payment, error)
	Cancel(ctx context.Context, id int64, actor entity.Actor) (*entity.Payment, error)
}

type paymentService struct {
	payments  port.PaymentRepository
	invoices  port.SupplierInvoiceRepository
	txManager port.TransactionManager
	numbering *Numbering
	trail     *auditTrail
	logger    Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	payments port.PaymentRepository,
	invoices port.SupplierInvoiceRepository,
	txManager port.TransactionManager,
	numbering *Numbering,
	audit port.AuditLogger,
	logger Logger,
) PaymentService {
	return &paymentService{
		payments:  payments,
		invoices:  invoices,
		txManager: txManager,
		numbering: numbering,
		trail:     newAuditTrail(audit, logger),
		logger:    logger,
	}
}

// CreateForInvoice creates a pending payment. A zero amount defaults to the
// invoice total. Refused while the invoice is BLOCKED or otherwise not
// VALIDATED.
func (s *paymentService) CreateForInvoice(ctx context.Context, actor entity.Actor, invoiceID int64, amount decimal.Decimal) (*entity.Payment, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("payment amount must not be negative")
	}

	payment := &entity.Payment{
		InvoiceID: invoiceID,
		Status:    entity.PaymentStatusPending,
	}

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.invoices.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status != entity.InvoiceStatusValidated {
			return fmt.Errorf("%w: invoice %s is %s, payment requires VALIDATED",
				workflow.ErrInvalidTransition, invoice.Number, invoice.Status)
		}

		payment.Amount = amount
		if payment.Amount.IsZero() {
			payment.Amount = invoice.TotalTTC
		}

		number, err := s.numbering.Next(ctx, entity.DocTypePayment)
		if err != nil {
			return err
		}
		payment.Number = number
		return s.payments.Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment created",
		"id", payment.ID, "number", payment.Number, "amount", payment.Amount.String())
	s.trail.record(ctx, actor, entity.DocTypePayment, payment.ID, "CREATE", "", string(payment.Status), "")
	return payment, nil
}

// Get retrieves a payment
func (s *paymentService) Get(ctx context.Context, id int64) (*entity.Payment, error) {
	return s.payments.GetByID(ctx, id)
}

// Execute settles the payment and marks the linked invoice PAID atomically
func (s *paymentService) Execute(ctx context.Context, id int64, actor entity.Actor) (*entity.Payment, error) {
	var payment *entity.Payment
	var before entity.PaymentStatus

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.payments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		before = payment.Status

		builder := workflow.NewBuilder()
		builder.Configure(workflow.State(entity.PaymentStatusPending)).
			Permit(triggerPaymentExecute, workflow.State(entity.PaymentStatusExecuted))
		machine := builder.Build(workflow.State(payment.Status))

		if err := machine.Fire(ctx, triggerPaymentExecute); err != nil {
			return err
		}
		payment.Status = entity.PaymentStatus(machine.State())
		now := time.Now()
		payment.ExecutedAt = &now

		invoice, err := s.invoices.GetByID(ctx, payment.InvoiceID)
		if err != nil {
			return err
		}
		if invoice.Status != entity.InvoiceStatusValidated {
			return fmt.Errorf("%w: invoice %s is %s, cannot mark paid",
				workflow.ErrInvalidTransition, invoice.Number, invoice.Status)
		}
		invoice.Status = entity.InvoiceStatusPaid
		if err := s.invoices.Update(ctx, invoice); err != nil {
			return err
		}
		return s.payments.Update(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment executed", "id", payment.ID, "invoice_id", payment.InvoiceID)
	s.trail.record(ctx, actor, entity.DocTypePayment, payment.ID, "EXECUTE", string(before), string(payment.Status), "")
	return payment, nil
}

// Cancel aborts a pending payment; executed payments cannot be cancelled
func (s *paymentService) Cancel(ctx context.Context, id int64, actor entity.Actor) (*entity.Payment, error) {
	var payment *entity.Payment
	var before entity.PaymentStatus

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.payments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		before = payment.Status

		builder := workflow.NewBuilder()
		builder.Configure(workflow.State(entity.PaymentStatusPending)).
			Permit(triggerPaymentCancel, workflow.State(entity.PaymentStatusCancelled))
		machine := builder.Build(workflow.State(payment.Status))

		if err := machine.Fire(ctx, triggerPaymentCancel); err != nil {
			return err
		}
		payment.Status = entity.PaymentStatus(machine.State())
		return s.payments.Update(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment cancelled", "id", payment.ID)
	s.trail.record(ctx, actor, entity.DocTypePayment, payment.ID, "CANCEL", string(before), string(payment.Status), "")
	return payment, nil
}
