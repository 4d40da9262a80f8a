package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/domain/approval"
	"github.com/oumarfall/procureflow/internal/domain/entity"
	"github.com/oumarfall/procureflow/internal/domain/workflow"
)

// Purchase order triggers
const (
	triggerOrderSubmit       workflow.Trigger = "SUBMIT"
	triggerOrderValidate     workflow.Trigger = "VALIDATE"
	triggerOrderApproveFinal workflow.Trigger = "APPROVE_FINAL"
	triggerOrderSend         workflow.Trigger = "SEND"
	triggerOrderCancel       workflow.Trigger = "CANCEL"
)

// OrderLineInput is one ordered article on creation
type OrderLineInput struct {
	ArticleCode string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// CreateOrderInput carries the data for a direct purchase order, created
// from an approved request without a proforma
type CreateOrderInput struct {
	RequestID  int64
	SupplierID int64
	Lines      []OrderLineInput
	TVARate    decimal.Decimal
}

// PurchaseOrderService manages the order validation chain: orders at or
// above the validation threshold require a validator and a distinct final
// signer before they can be sent.
type PurchaseOrderService interface {
	CreateFromRequest(ctx context.Context, actor entity.Actor, input CreateOrderInput) (*entity.PurchaseOrder, error)
	Get(ctx context.Context, id int64) (*entity.PurchaseOrder, error)
	Submit(ctx context.Context, id int64, actor entity.Actor) (*entity.PurchaseOrder, error)
	Validate(ctx context.Context, id int64, actor entity.Actor, approve bool, comment string) (*entity.PurchaseOrder, error)
	ApproveFinal(ctx context.Context, id int64, actor entity.Actor) (*entity.PurchaseOrder, error)
	Send(ctx context.Context, id int64, actor entity.Actor) (*entity.PurchaseOrder, error)
	Cancel(ctx context.Context, id int64, actor entity.Actor) (*entity.PurchaseOrder, error)
}

type orderService struct {
	orders     port.PurchaseOrderRepository
	requests   port.PurchaseRequestRepository
	txManager  port.TransactionManager
	numbering  *Numbering
	thresholds *approval.ThresholdTable
	trail      *auditTrail
	logger     Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	orders port.PurchaseOrderRepository,
	requests port.PurchaseRequestRepository,
	txManager port.TransactionManager,
	numbering *Numbering,
	thresholds *approval.ThresholdTable,
	audit port.AuditLogger,
	logger Logger,
) PurchaseOrderService {
	if thresholds == nil {
		thresholds = approval.DefaultOrderThresholds()
	}
	return &orderService{
		orders:     orders,
		requests:   requests,
		txManager:  txManager,
		numbering:  numbering,
		thresholds: thresholds,
		trail:      newAuditTrail(audit, logger),
		logger:     logger,
	}
}

// CreateFromRequest creates a draft order directly from an approved request
func (s *orderService) CreateFromRequest(ctx context.Context, actor entity.Actor, input CreateOrderInput) (*entity.PurchaseOrder, error) {
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("purchase order must have at least one line")
	}
	if input.TVARate.IsNegative() {
		return nil, fmt.Errorf("tva rate must not be negative")
	}

	requestID := input.RequestID
	order := &entity.PurchaseOrder{
		RequestID:  &requestID,
		BuyerID:    actor.ID,
		SupplierID: input.SupplierID,
		Status:     entity.OrderStatusDraft,
	}
	totalHT := decimal.Zero
	for _, line := range input.Lines {
		if !line.Quantity.IsPositive() {
			return nil, fmt.Errorf("order line %s: quantity must be positive", line.ArticleCode)
		}
		order.Lines = append(order.Lines, entity.OrderLine{
			ArticleCode: line.ArticleCode,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
		totalHT = totalHT.Add(line.Quantity.Mul(line.UnitPrice))
	}
	order.TotalHT = totalHT
	order.TotalTVA = totalHT.Mul(input.TVARate)
	order.TotalTTC = order.TotalHT.Add(order.TotalTVA)

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		request, err := s.requests.GetByID(ctx, input.RequestID)
		if err != nil {
			return err
		}
		if request.Status != entity.RequestStatusApproved {
			return fmt.Errorf("%w: purchase request %s is %s, direct order requires APPROVED",
				workflow.ErrInvalidTransition, request.Number, request.Status)
		}

		number, err := s.numbering.Next(ctx, entity.DocTypePurchaseOrder)
		if err != nil {
			return err
		}
		order.Number = number
		return s.orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Purchase order created",
		"id", order.ID, "number", order.Number, "total_ht", order.TotalHT.String())
	s.trail.record(ctx, actor, entity.DocTypePurchaseOrder, order.ID, "CREATE", "", string(order.Status), "")
	return order, nil
}

// Get retrieves a purchase order with its lines
func (s *orderService) Get(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	return s.orders.GetByID(ctx, id)
}

// Submit routes the draft: at or above the validation threshold it waits
// for a validator, below it the order is validated directly
func (s *orderService) Submit(ctx context.Context, id int64, actor entity.Actor) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, id, actor, "SUBMIT", "", func(order *entity.PurchaseOrder) (workflow.StateMachine, workflow.Trigger) {
		target := entity.OrderStatusValidated
		if s.thresholds.RequiredLevel(order.TotalHT) >= 1 {
			target = entity.OrderStatusPendingValidation
		}

		builder := workflow.NewBuilder()
		builder.Configure(workflow.State(entity.OrderStatusDraft)).
			Permit(triggerOrderSubmit, workflow.State(target))
		return builder.Build(workflow.State(order.Status)), triggerOrderSubmit
	})
}

// Validate records the responsible's decision on an order awaiting validation
func (s *orderService) Validate(ctx context.Context, id int64, actor entity.Actor, approve bool, comment string) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, id, actor, "VALIDATE", comment, func(order *entity.PurchaseOrder) (workflow.StateMachine, workflow.Trigger) {
		target := entity.OrderStatusValidated
		if !approve {
			target = entity.OrderStatusRejected
		}

		builder := workflow.NewBuilder()
		builder.Configure(workflow.State(entity.OrderStatusPendingValidation)).
			PermitIf(triggerOrderValidate, workflow.State(target), func(ctx context.Context) error {
				if coi := approval.CheckApprover(order.BuyerID, actor.ID); coi != nil {
					return coi
				}
				return nil
			})

		validatorID := actor.ID
		order.ValidatorID = &validatorID
		return builder.Build(workflow.State(order.Status)), triggerOrderValidate
	})
}

// ApproveFinal records the final signer, a role distinct from both the
// buyer and the validator
func (s *orderService) ApproveFinal(ctx context.Context, id int64, actor entity.Actor) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, id, actor, "APPROVE_FINAL", "", func(order *entity.PurchaseOrder) (workflow.StateMachine, workflow.Trigger) {
		builder := workflow.NewBuilder()
		builder.Configure(workflow.State(entity.OrderStatusValidated)).
			PermitIf(triggerOrderApproveFinal, workflow.State(entity.OrderStatusApproved), func(ctx context.Context) error {
				if coi := approval.CheckApprover(order.BuyerID, actor.ID); coi != nil {
					return coi
				}
				if order.ValidatorID != nil {
					if coi := approval.CheckApprover(*order.ValidatorID, actor.ID); coi != nil {
						return coi
					}
				}
				return nil
			})

		approverID := actor.ID
		order.FinalApproverID = &approverID
		return builder.Build(workflow.State(order.Status)), triggerOrderApproveFinal
	})
}

// Send marks the order as transmitted to the supplier; receipts may now be created
func (s *orderService) Send(ctx context.Context, id int64, actor entity.Actor) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, id, actor, "SEND", "", func(order *entity.PurchaseOrder) (workflow.StateMachine, workflow.Trigger) {
		builder := workflow.NewBuilder()
		builder.Configure(workflow.State(entity.OrderStatusApproved)).
			Permit(triggerOrderSend, workflow.State(entity.OrderStatusSent))
		return builder.Build(workflow.State(order.Status)), triggerOrderSend
	})
}

// Cancel terminates the order from any pre-terminal state
func (s *orderService) Cancel(ctx context.Context, id int64, actor entity.Actor) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, id, actor, "CANCEL", "", func(order *entity.PurchaseOrder) (workflow.StateMachine, workflow.Trigger) {
		builder := workflow.NewBuilder()
		for _, from := range []entity.OrderStatus{
			entity.OrderStatusDraft,
			entity.OrderStatusPendingValidation,
			entity.OrderStatusValidated,
			entity.OrderStatusApproved,
		} {
			builder.Configure(workflow.State(from)).
				Permit(triggerOrderCancel, workflow.State(entity.OrderStatusCancelled))
		}
		return builder.Build(workflow.State(order.Status)), triggerOrderCancel
	})
}

func (s *orderService) transition(
	ctx context.Context,
	id int64,
	actor entity.Actor,
	action, note string,
	configure func(order *entity.PurchaseOrder) (workflow.StateMachine, workflow.Trigger),
) (*entity.PurchaseOrder, error) {
	var order *entity.PurchaseOrder
	var before entity.OrderStatus

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		before = order.Status

		machine, trigger := configure(order)
		if err := machine.Fire(ctx, trigger); err != nil {
			return err
		}
		order.Status = entity.OrderStatus(machine.State())
		return s.orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Purchase order transition",
		"id", order.ID, "action", action, "from", string(before), "to", string(order.Status))
	s.trail.record(ctx, actor, entity.DocTypePurchaseOrder, order.ID, action, string(before), string(order.Status), note)
	return order, nil
}
