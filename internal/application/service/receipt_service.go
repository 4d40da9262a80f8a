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

// ReceiptLineUpdate carries one control count for a receipt line
type ReceiptLineUpdate struct {
	LineID           int64
	ReceivedQty      decimal.Decimal
	ConformingQty    decimal.Decimal
	NonConformingQty decimal.Decimal
	Reason           string
}

// GoodsReceiptService manages reception control against a sent purchase
// order. Finalization is the single point where conforming quantities are
// posted to the external stock ledger.
type GoodsReceiptService interface {
	CreateFromOrder(ctx context.Context, actor entity.Actor, orderID, depotID int64) (*entity.GoodsReceipt, error)
	Get(ctx context.Context, id int64) (*entity.GoodsReceipt, error)
	UpdateLine(ctx context.Context, receiptID int64, actor entity.Actor, update ReceiptLineUpdate) (*entity.GoodsReceipt, error)
	Finalize(ctx context.Context, receiptID int64, actor entity.Actor) (*entity.GoodsReceipt, error)
}

type receiptService struct {
	receipts  port.GoodsReceiptRepository
	orders    port.PurchaseOrderRepository
	txManager port.TransactionManager
	numbering *Numbering
	ledger    port.StockLedger
	trail     *auditTrail
	logger    Logger
}

// NewGoodsReceiptService creates a new GoodsReceiptService
func NewGoodsReceiptService(
	receipts port.GoodsReceiptRepository,
	orders port.PurchaseOrderRepository,
	txManager port.TransactionManager,
	numbering *Numbering,
	ledger port.StockLedger,
	audit port.AuditLogger,
	logger Logger,
) GoodsReceiptService {
	return &receiptService{
		receipts:  receipts,
		orders:    orders,
		txManager: txManager,
		numbering: numbering,
		ledger:    ledger,
		trail:     newAuditTrail(audit, logger),
		logger:    logger,
	}
}

// CreateFromOrder seeds a receipt with one line per order line; ordered
// quantities are copied, counters start at zero
func (s *receiptService) CreateFromOrder(ctx context.Context, actor entity.Actor, orderID, depotID int64) (*entity.GoodsReceipt, error) {
	receipt := &entity.GoodsReceipt{
		OrderID:    orderID,
		ReceiverID: actor.ID,
		DepotID:    depotID,
		Status:     entity.ReceiptStatusInProgress,
	}

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != entity.OrderStatusApproved && order.Status != entity.OrderStatusSent {
			return fmt.Errorf("%w: order %s is %s, receipt requires APPROVED or SENT",
				workflow.ErrInvalidTransition, order.Number, order.Status)
		}

		for _, line := range order.Lines {
			receipt.Lines = append(receipt.Lines, entity.ReceiptLine{
				ArticleCode:      line.ArticleCode,
				OrderedQty:       line.Quantity,
				ReceivedQty:      decimal.Zero,
				ConformingQty:    decimal.Zero,
				NonConformingQty: decimal.Zero,
				UnitCost:         line.UnitPrice,
			})
		}

		number, err := s.numbering.Next(ctx, entity.DocTypeGoodsReceipt)
		if err != nil {
			return err
		}
		receipt.Number = number
		return s.receipts.Create(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Goods receipt created", "id", receipt.ID, "number", receipt.Number, "order_id", orderID)
	s.trail.record(ctx, actor, entity.DocTypeGoodsReceipt, receipt.ID, "CREATE", "", string(receipt.Status), "")
	return receipt, nil
}

// Get retrieves a goods receipt with its lines
func (s *receiptService) Get(ctx context.Context, id int64) (*entity.GoodsReceipt, error) {
	return s.receipts.GetByID(ctx, id)
}

// UpdateLine records one control count and recomputes the aggregate status
func (s *receiptService) UpdateLine(ctx context.Context, receiptID int64, actor entity.Actor, update ReceiptLineUpdate) (*entity.GoodsReceipt, error) {
	var receipt *entity.GoodsReceipt
	var before entity.ReceiptStatus

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		receipt, err = s.receipts.GetByID(ctx, receiptID)
		if err != nil {
			return err
		}
		if receipt.FinalizedAt != nil {
			return fmt.Errorf("%w: receipt %s is finalized", workflow.ErrInvalidTransition, receipt.Number)
		}
		before = receipt.Status

		found := false
		for i := range receipt.Lines {
			if receipt.Lines[i].ID != update.LineID {
				continue
			}
			receipt.Lines[i].ReceivedQty = update.ReceivedQty
			receipt.Lines[i].ConformingQty = update.ConformingQty
			receipt.Lines[i].NonConformingQty = update.NonConformingQty
			receipt.Lines[i].Reason = update.Reason
			if err := receipt.Lines[i].Validate(); err != nil {
				return err
			}
			found = true
			break
		}
		if !found {
			return fmt.Errorf("%w: receipt line %d", port.ErrNotFound, update.LineID)
		}

		receipt.RecomputeStatus()
		return s.receipts.Update(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}

	s.trail.record(ctx, actor, entity.DocTypeGoodsReceipt, receipt.ID, "UPDATE_LINE", string(before), string(receipt.Status), "")
	return receipt, nil
}

// Finalize freezes the receipt and posts one ledger movement per line with
// a non-zero conforming quantity. Postings are not reversed by later
// invoice rejections; reversal is a separate explicit adjustment.
func (s *receiptService) Finalize(ctx context.Context, receiptID int64, actor entity.Actor) (*entity.GoodsReceipt, error) {
	var receipt *entity.GoodsReceipt
	var before entity.ReceiptStatus
	var postings int

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		receipt, err = s.receipts.GetByID(ctx, receiptID)
		if err != nil {
			return err
		}
		if receipt.FinalizedAt != nil {
			return fmt.Errorf("%w: receipt %s is already finalized", workflow.ErrInvalidTransition, receipt.Number)
		}
		if !receipt.ReadyToFinalize() {
			return fmt.Errorf("%w: receipt %s has uncontrolled lines", workflow.ErrInvalidTransition, receipt.Number)
		}
		before = receipt.Status

		for _, line := range receipt.Lines {
			if !line.ConformingQty.IsPositive() {
				continue
			}
			movementID, err := s.ledger.PostReceipt(ctx, port.ReceiptPosting{
				ArticleCode:      line.ArticleCode,
				DepotID:          receipt.DepotID,
				Quantity:         line.ConformingQty,
				UnitCost:         line.UnitCost,
				SourceDocumentID: receipt.ID,
			})
			if err != nil {
				return fmt.Errorf("post receipt line %s: %w", line.ArticleCode, err)
			}
			postings++
			s.logger.Info("Stock movement posted",
				"receipt_id", receipt.ID, "article", line.ArticleCode, "movement_id", movementID)
		}

		now := time.Now()
		receipt.FinalizedAt = &now
		receipt.RecomputeStatus()
		return s.receipts.Update(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Goods receipt finalized",
		"id", receipt.ID, "number", receipt.Number, "postings", postings)
	s.trail.record(ctx, actor, entity.DocTypeGoodsReceipt, receipt.ID, "FINALIZE", string(before), string(receipt.Status), "")
	return receipt, nil
}
