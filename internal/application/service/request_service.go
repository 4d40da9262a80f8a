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

// Purchase request triggers
const (
	triggerRequestSubmit  workflow.Trigger = "SUBMIT"
	triggerRequestApprove workflow.Trigger = "APPROVE"
	triggerRequestReject  workflow.Trigger = "REJECT"
	triggerRequestFinance workflow.Trigger = "FINANCE_DECISION"
	triggerRequestCancel  workflow.Trigger = "CANCEL"
)

// RequestLineInput is one requested article on creation
type RequestLineInput struct {
	ArticleCode string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// CreateRequestInput carries the data for a new purchase request
type CreateRequestInput struct {
	Lines []RequestLineInput
}

// PurchaseRequestService manages the purchase request lifecycle: draft,
// submission, threshold-routed multi-level approval, finance decision.
type PurchaseRequestService interface {
	Create(ctx context.Context, actor entity.Actor, input CreateRequestInput) (*entity.PurchaseRequest, error)
	Get(ctx context.Context, id int64) (*entity.PurchaseRequest, error)
	Submit(ctx context.Context, id int64, actor entity.Actor) (*entity.PurchaseRequest, error)
	Approve(ctx context.Context, id int64, actor entity.Actor, level int, comment string) (*entity.PurchaseRequest, error)
	Reject(ctx context.Context, id int64, actor entity.Actor, level int, comment string) (*entity.PurchaseRequest, error)
	FinanceDecision(ctx context.Context, id int64, actor entity.Actor, fundsAvailable bool, comment string) (*entity.PurchaseRequest, error)
	Cancel(ctx context.Context, id int64, actor entity.Actor) (*entity.PurchaseRequest, error)
	History(ctx context.Context, id int64) ([]*entity.ApprovalRecord, error)
}

type requestService struct {
	requests   port.PurchaseRequestRepository
	records    port.ApprovalRecordRepository
	txManager  port.TransactionManager
	numbering  *Numbering
	thresholds *approval.ThresholdTable
	trail      *auditTrail
	logger     Logger
}

// NewPurchaseRequestService creates a new PurchaseRequestService
func NewPurchaseRequestService(
	requests port.PurchaseRequestRepository,
	records port.ApprovalRecordRepository,
	txManager port.TransactionManager,
	numbering *Numbering,
	thresholds *approval.ThresholdTable,
	audit port.AuditLogger,
	logger Logger,
) PurchaseRequestService {
	if thresholds == nil {
		thresholds = approval.DefaultRequestThresholds()
	}
	return &requestService{
		requests:   requests,
		records:    records,
		txManager:  txManager,
		numbering:  numbering,
		thresholds: thresholds,
		trail:      newAuditTrail(audit, logger),
		logger:     logger,
	}
}

// Create validates the lines, computes the estimated amount and persists a
// DRAFT request with a fresh document number
func (s *requestService) Create(ctx context.Context, actor entity.Actor, input CreateRequestInput) (*entity.PurchaseRequest, error) {
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("purchase request must have at least one line")
	}

	request := &entity.PurchaseRequest{
		RequesterID: actor.ID,
		Status:      entity.RequestStatusDraft,
	}
	for _, line := range input.Lines {
		if line.ArticleCode == "" {
			return nil, fmt.Errorf("request line article code is required")
		}
		if !line.Quantity.IsPositive() {
			return nil, fmt.Errorf("request line %s: quantity must be positive", line.ArticleCode)
		}
		if line.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("request line %s: unit price must not be negative", line.ArticleCode)
		}
		request.Lines = append(request.Lines, entity.RequestLine{
			ArticleCode: line.ArticleCode,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}
	request.Amount = request.ComputeAmount()

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numbering.Next(ctx, entity.DocTypePurchaseRequest)
		if err != nil {
			return err
		}
		request.Number = number

		if err := request.ValidateAmount(); err != nil {
			return err
		}
		return s.requests.Create(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Purchase request created",
		"id", request.ID, "number", request.Number, "amount", request.Amount.String())
	s.trail.record(ctx, actor, entity.DocTypePurchaseRequest, request.ID, "CREATE", "", string(request.Status), "")
	return request, nil
}

// Get retrieves a purchase request with its lines
func (s *requestService) Get(ctx context.Context, id int64) (*entity.PurchaseRequest, error) {
	return s.requests.GetByID(ctx, id)
}

// Submit moves a draft request into the approval chain
func (s *requestService) Submit(ctx context.Context, id int64, actor entity.Actor) (*entity.PurchaseRequest, error) {
	return s.transition(ctx, id, actor, "SUBMIT", "", func(request *entity.PurchaseRequest) (workflow.StateMachine, workflow.Trigger, func(ctx context.Context) error) {
		builder := workflow.NewBuilder()
		builder.Configure(workflow.State(entity.RequestStatusDraft)).
			Permit(triggerRequestSubmit, workflow.State(entity.RequestStatusSubmitted))
		return builder.Build(workflow.State(request.Status)), triggerRequestSubmit, nil
	})
}

// Approve records one approval decision. Below the required level the
// request stays SUBMITTED awaiting the next tier; at or above it moves to
// PENDING_FINANCE. The decision is recorded even at level 0 so the audit
// chain always holds at least one entry.
func (s *requestService) Approve(ctx context.Context, id int64, actor entity.Actor, level int, comment string) (*entity.PurchaseRequest, error) {
	if level < 0 || level > s.thresholds.MaxLevel() {
		return nil, fmt.Errorf("approval level %d out of range [0, %d]", level, s.thresholds.MaxLevel())
	}

	return s.transition(ctx, id, actor, "APPROVE", comment, func(request *entity.PurchaseRequest) (workflow.StateMachine, workflow.Trigger, func(ctx context.Context) error) {
		requiredLevel := s.thresholds.RequiredLevel(request.Amount)

		sod := func(ctx context.Context) error {
			if coi := approval.CheckApprover(request.RequesterID, actor.ID); coi != nil {
				return coi
			}
			return nil
		}

		builder := workflow.NewBuilder()
		builder.Configure(workflow.State(entity.RequestStatusSubmitted)).
			PermitIf(triggerRequestApprove, workflow.State(entity.RequestStatusPendingFinance), func(ctx context.Context) error {
				if err := sod(ctx); err != nil {
					return err
				}
				if level < requiredLevel {
					return fmt.Errorf("%w: level %d of %d", approval.ErrThresholdViolation, level, requiredLevel)
				}
				return nil
			}).
			PermitIf(triggerRequestApprove, workflow.State(entity.RequestStatusSubmitted), sod)

		after := func(ctx context.Context) error {
			// Sanity check: leaving SUBMITTED requires the resolved level
			if request.Status == entity.RequestStatusPendingFinance && level < requiredLevel {
				return approval.ErrThresholdViolation
			}
			return s.records.Create(ctx, &entity.ApprovalRecord{
				RequestID:  request.ID,
				ApproverID: actor.ID,
				Level:      level,
				Decision:   entity.DecisionApproved,
				Comment:    comment,
			})
		}
		return builder.Build(workflow.State(request.Status)), triggerRequestApprove, after
	})
}

// Reject terminates the approval chain at any level
func (s *requestService) Reject(ctx context.Context, id int64, actor entity.Actor, level int, comment string) (*entity.PurchaseRequest, error) {
	return s.transition(ctx, id, actor, "REJECT", comment, func(request *entity.PurchaseRequest) (workflow.StateMachine, workflow.Trigger, func(ctx context.Context) error) {
		builder := workflow.NewBuilder()
		builder.Configure(workflow.State(entity.RequestStatusSubmitted)).
			PermitIf(triggerRequestReject, workflow.State(entity.RequestStatusRejected), func(ctx context.Context) error {
				if coi := approval.CheckApprover(request.RequesterID, actor.ID); coi != nil {
					return coi
				}
				return nil
			})

		after := func(ctx context.Context) error {
			return s.records.Create(ctx, &entity.ApprovalRecord{
				RequestID:  request.ID,
				ApproverID: actor.ID,
				Level:      level,
				Decision:   entity.DecisionRejected,
				Comment:    comment,
			})
		}
		return builder.Build(workflow.State(request.Status)), triggerRequestReject, after
	})
}

// FinanceDecision records the funds-availability check that closes the chain
func (s *requestService) FinanceDecision(ctx context.Context, id int64, actor entity.Actor, fundsAvailable bool, comment string) (*entity.PurchaseRequest, error) {
	return s.transition(ctx, id, actor, "FINANCE_DECISION", comment, func(request *entity.PurchaseRequest) (workflow.StateMachine, workflow.Trigger, func(ctx context.Context) error) {
		target := entity.RequestStatusApproved
		decision := entity.DecisionFundsOK
		if !fundsAvailable {
			target = entity.RequestStatusRejected
			decision = entity.DecisionFundsInsufficient
		}

		builder := workflow.NewBuilder()
		builder.Configure(workflow.State(entity.RequestStatusPendingFinance)).
			PermitIf(triggerRequestFinance, workflow.State(target), func(ctx context.Context) error {
				if coi := approval.CheckApprover(request.RequesterID, actor.ID); coi != nil {
					return coi
				}
				return nil
			})

		after := func(ctx context.Context) error {
			return s.records.Create(ctx, &entity.ApprovalRecord{
				RequestID:  request.ID,
				ApproverID: actor.ID,
				Level:      entity.LevelFinance,
				Decision:   decision,
				Comment:    comment,
			})
		}
		return builder.Build(workflow.State(request.Status)), triggerRequestFinance, after
	})
}

// Cancel terminates the request from any pre-terminal state. Approval
// records already written are kept.
func (s *requestService) Cancel(ctx context.Context, id int64, actor entity.Actor) (*entity.PurchaseRequest, error) {
	return s.transition(ctx, id, actor, "CANCEL", "", func(request *entity.PurchaseRequest) (workflow.StateMachine, workflow.Trigger, func(ctx context.Context) error) {
		builder := workflow.NewBuilder()
		for _, from := range []entity.RequestStatus{
			entity.RequestStatusDraft,
			entity.RequestStatusSubmitted,
			entity.RequestStatusPendingFinance,
			entity.RequestStatusApproved,
		} {
			builder.Configure(workflow.State(from)).
				Permit(triggerRequestCancel, workflow.State(entity.RequestStatusCancelled))
		}
		return builder.Build(workflow.State(request.Status)), triggerRequestCancel, nil
	})
}

// History returns the append-only approval chain of a request
func (s *requestService) History(ctx context.Context, id int64) ([]*entity.ApprovalRecord, error) {
	if _, err := s.requests.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.records.ListByRequest(ctx, id)
}

// transition runs one workflow action in a request-scoped transaction:
// load, fire the machine, run the action's side effects, persist with a
// version check. Nothing is partially applied.
func (s *requestService) transition(
	ctx context.Context,
	id int64,
	actor entity.Actor,
	action, note string,
	configure func(request *entity.PurchaseRequest) (workflow.StateMachine, workflow.Trigger, func(ctx context.Context) error),
) (*entity.PurchaseRequest, error) {
	var request *entity.PurchaseRequest
	var before entity.RequestStatus

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		request, err = s.requests.GetByID(ctx, id)
		if err != nil {
			return err
		}
		before = request.Status

		machine, trigger, after := configure(request)
		if err := machine.Fire(ctx, trigger); err != nil {
			return err
		}
		request.Status = entity.RequestStatus(machine.State())

		if after != nil {
			if err := after(ctx); err != nil {
				return err
			}
		}
		return s.requests.Update(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Purchase request transition",
		"id", request.ID, "action", action, "from", string(before), "to", string(request.Status))
	s.trail.record(ctx, actor, entity.DocTypePurchaseRequest, request.ID, action, string(before), string(request.Status), note)
	return request, nil
}
