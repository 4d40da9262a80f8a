package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/domain/entity"
	"github.com/oumarfall/procureflow/internal/domain/workflow"
)

// Proforma triggers
const (
	triggerProformaAccept    workflow.Trigger = "ACCEPT"
	triggerProformaReject    workflow.Trigger = "REJECT"
	triggerProformaTransform workflow.Trigger = "TRANSFORM"
)

// ProformaService manages supplier proformas. A proforma is generated only
// from an APPROVED purchase request with no other active proforma, and its
// transformation is the one place a purchase order is derived automatically.
type ProformaService interface {
	CreateFromRequest(ctx context.Context, actor entity.Actor, requestID, supplierID int64) (*entity.Proforma, error)
	Get(ctx context.Context, id int64) (*entity.Proforma, error)
	Accept(ctx context.Context, id int64, actor entity.Actor) (*entity.Proforma, error)
	Reject(ctx context.Context, id int64, actor entity.Actor) (*entity.Proforma, error)
	// Transform marks the proforma TRANSFORMED and creates the draft
	// purchase order from the source request's lines in the same
	// transaction. Irreversible.
	Transform(ctx context.Context, id int64, actor entity.Actor) (*entity.Proforma, *entity.PurchaseOrder, error)
}

type proformaService struct {
	proformas port.ProformaRepository
	requests  port.PurchaseRequestRepository
	orders    port.PurchaseOrderRepository
	txManager port.TransactionManager
	numbering *Numbering
	tvaRate   decimal.Decimal
	trail     *auditTrail
	logger    Logger
}

// NewProformaService creates a new ProformaService. tvaRate is the VAT rate
// applied when deriving order totals (e.g. 0.18).
func NewProformaService(
	proformas port.ProformaRepository,
	requests port.PurchaseRequestRepository,
	orders port.PurchaseOrderRepository,
	txManager port.TransactionManager,
	numbering *Numbering,
	tvaRate decimal.Decimal,
	audit port.AuditLogger,
	logger Logger,
) ProformaService {
	return &proformaService{
		proformas: proformas,
		requests:  requests,
		orders:    orders,
		txManager: txManager,
		numbering: numbering,
		tvaRate:   tvaRate,
		trail:     newAuditTrail(audit, logger),
		logger:    logger,
	}
}

// CreateFromRequest creates a draft proforma for an approved request.
// Uniqueness of the active proforma is checked inside the transaction.
func (s *proformaService) CreateFromRequest(ctx context.Context, actor entity.Actor, requestID, supplierID int64) (*entity.Proforma, error) {
	proforma := &entity.Proforma{
		RequestID:  requestID,
		SupplierID: supplierID,
		Status:     entity.ProformaStatusDraft,
	}

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		request, err := s.requests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if request.Status != entity.RequestStatusApproved {
			return fmt.Errorf("%w: purchase request %s is %s, proforma requires APPROVED",
				workflow.ErrInvalidTransition, request.Number, request.Status)
		}

		existing, err := s.proformas.GetActiveByRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: request %s already has active proforma %s",
				workflow.ErrInvalidTransition, request.Number, existing.Number)
		}

		number, err := s.numbering.Next(ctx, entity.DocTypeProforma)
		if err != nil {
			return err
		}
		proforma.Number = number
		return s.proformas.Create(ctx, proforma)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Proforma created", "id", proforma.ID, "number", proforma.Number, "request_id", requestID)
	s.trail.record(ctx, actor, entity.DocTypeProforma, proforma.ID, "CREATE", "", string(proforma.Status), "")
	return proforma, nil
}

// Get retrieves a proforma
func (s *proformaService) Get(ctx context.Context, id int64) (*entity.Proforma, error) {
	return s.proformas.GetByID(ctx, id)
}

// Accept marks the supplier's terms as accepted
func (s *proformaService) Accept(ctx context.Context, id int64, actor entity.Actor) (*entity.Proforma, error) {
	return s.transition(ctx, id, actor, "ACCEPT", triggerProformaAccept, entity.ProformaStatusDraft, entity.ProformaStatusAccepted)
}

// Reject supersedes the proforma; a new one may then be created
func (s *proformaService) Reject(ctx context.Context, id int64, actor entity.Actor) (*entity.Proforma, error) {
	return s.transition(ctx, id, actor, "REJECT", triggerProformaReject, entity.ProformaStatusDraft, entity.ProformaStatusRejected)
}

// Transform converts an accepted proforma into a draft purchase order
func (s *proformaService) Transform(ctx context.Context, id int64, actor entity.Actor) (*entity.Proforma, *entity.PurchaseOrder, error) {
	var proforma *entity.Proforma
	var order *entity.PurchaseOrder

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		proforma, err = s.proformas.GetByID(ctx, id)
		if err != nil {
			return err
		}

		builder := workflow.NewBuilder()
		builder.Configure(workflow.State(entity.ProformaStatusAccepted)).
			Permit(triggerProformaTransform, workflow.State(entity.ProformaStatusTransformed))
		machine := builder.Build(workflow.State(proforma.Status))

		if err := machine.Fire(ctx, triggerProformaTransform); err != nil {
			return err
		}
		proforma.Status = entity.ProformaStatus(machine.State())

		request, err := s.requests.GetByID(ctx, proforma.RequestID)
		if err != nil {
			return err
		}

		order, err = s.buildOrder(ctx, actor, proforma, request)
		if err != nil {
			return err
		}
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}
		return s.proformas.Update(ctx, proforma)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Proforma transformed",
		"proforma_id", proforma.ID, "order_id", order.ID, "order_number", order.Number)
	s.trail.record(ctx, actor, entity.DocTypeProforma, proforma.ID, "TRANSFORM",
		string(entity.ProformaStatusAccepted), string(proforma.Status), "order "+order.Number)
	return proforma, order, nil
}

// buildOrder derives the draft order from the request's lines, with TTC
// computed at the configured VAT rate
func (s *proformaService) buildOrder(ctx context.Context, actor entity.Actor, proforma *entity.Proforma, request *entity.PurchaseRequest) (*entity.PurchaseOrder, error) {
	number, err := s.numbering.Next(ctx, entity.DocTypePurchaseOrder)
	if err != nil {
		return nil, err
	}

	proformaID := proforma.ID
	requestID := request.ID
	order := &entity.PurchaseOrder{
		Number:     number,
		ProformaID: &proformaID,
		RequestID:  &requestID,
		BuyerID:    actor.ID,
		SupplierID: proforma.SupplierID,
		Status:     entity.OrderStatusDraft,
	}

	totalHT := decimal.Zero
	for _, line := range request.Lines {
		order.Lines = append(order.Lines, entity.OrderLine{
			ArticleCode: line.ArticleCode,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
		totalHT = totalHT.Add(line.Total())
	}
	order.TotalHT = totalHT
	order.TotalTVA = totalHT.Mul(s.tvaRate)
	order.TotalTTC = order.TotalHT.Add(order.TotalTVA)
	return order, nil
}

func (s *proformaService) transition(ctx context.Context, id int64, actor entity.Actor, action string, trigger workflow.Trigger, from, to entity.ProformaStatus) (*entity.Proforma, error) {
	var proforma *entity.Proforma
	var before entity.ProformaStatus

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		proforma, err = s.proformas.GetByID(ctx, id)
		if err != nil {
			return err
		}
		before = proforma.Status

		builder := workflow.NewBuilder()
		builder.Configure(workflow.State(from)).Permit(trigger, workflow.State(to))
		machine := builder.Build(workflow.State(proforma.Status))

		if err := machine.Fire(ctx, trigger); err != nil {
			return err
		}
		proforma.Status = entity.ProformaStatus(machine.State())
		return s.proformas.Update(ctx, proforma)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Proforma transition", "id", proforma.ID, "action", action, "from", string(before), "to", string(proforma.Status))
	s.trail.record(ctx, actor, entity.DocTypeProforma, proforma.ID, action, string(before), string(proforma.Status), "")
	return proforma, nil
}
