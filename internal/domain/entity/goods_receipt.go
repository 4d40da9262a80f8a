package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptStatus is the aggregate control state of a goods receipt,
// recomputed from its lines after every line update
type ReceiptStatus string

const (
	ReceiptStatusInProgress      ReceiptStatus = "IN_PROGRESS"
	ReceiptStatusPartial         ReceiptStatus = "PARTIAL"
	ReceiptStatusComplete        ReceiptStatus = "COMPLETE"
	ReceiptStatusWithDiscrepancy ReceiptStatus = "WITH_DISCREPANCY"
)

var validReceiptStatuses = map[ReceiptStatus]bool{
	ReceiptStatusInProgress:      true,
	ReceiptStatusPartial:         true,
	ReceiptStatusComplete:        true,
	ReceiptStatusWithDiscrepancy: true,
}

// IsValid returns true if the status is a known receipt status
func (s ReceiptStatus) IsValid() bool {
	return validReceiptStatuses[s]
}

// String returns the string representation of the status
func (s ReceiptStatus) String() string {
	return string(s)
}

// GoodsReceipt records goods physically received against a purchase order.
// It is seeded with one line per order line; finalization posts conforming
// quantities to the stock ledger and freezes the receipt.
type GoodsReceipt struct {
	ID          int64         `json:"id"`
	Number      string        `json:"number"`
	OrderID     int64         `json:"order_id"`
	ReceiverID  int64         `json:"receiver_id"`
	DepotID     int64         `json:"depot_id"`
	Status      ReceiptStatus `json:"status"`
	Version     int64         `json:"version"`
	Lines       []ReceiptLine `json:"lines,omitempty"`
	FinalizedAt *time.Time    `json:"finalized_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ReceiptLine tracks ordered vs received vs conforming quantities for one
// article. Invariant: conforming + non-conforming == received.
type ReceiptLine struct {
	ID               int64           `json:"id"`
	ReceiptID        int64           `json:"receipt_id"`
	ArticleCode      string          `json:"article_code"`
	OrderedQty       decimal.Decimal `json:"ordered_qty"`
	ReceivedQty      decimal.Decimal `json:"received_qty"`
	ConformingQty    decimal.Decimal `json:"conforming_qty"`
	NonConformingQty decimal.Decimal `json:"non_conforming_qty"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	Reason           string          `json:"reason,omitempty"`
}

// Validate enforces the per-line quantity invariant
func (l ReceiptLine) Validate() error {
	if l.ReceivedQty.IsNegative() || l.ConformingQty.IsNegative() || l.NonConformingQty.IsNegative() {
		return fmt.Errorf("receipt line %s: quantities must not be negative", l.ArticleCode)
	}
	if !l.ConformingQty.Add(l.NonConformingQty).Equal(l.ReceivedQty) {
		return fmt.Errorf("receipt line %s: conforming %s + non-conforming %s != received %s",
			l.ArticleCode, l.ConformingQty, l.NonConformingQty, l.ReceivedQty)
	}
	return nil
}

// Controlled returns true once the line has been counted (or nothing was ordered)
func (l ReceiptLine) Controlled() bool {
	return l.ReceivedQty.IsPositive() || l.OrderedQty.IsZero()
}

// RecomputeStatus derives the aggregate status from the current lines:
// any uncounted line keeps the receipt IN_PROGRESS; any non-conforming
// quantity marks WITH_DISCREPANCY; all lines received in full is COMPLETE;
// anything else is PARTIAL.
func (r *GoodsReceipt) RecomputeStatus() ReceiptStatus {
	anyZero := false
	anyNonConforming := false
	allFull := true

	for _, line := range r.Lines {
		if line.ReceivedQty.IsZero() {
			anyZero = true
		}
		if line.NonConformingQty.IsPositive() {
			anyNonConforming = true
		}
		if !line.ReceivedQty.Equal(line.OrderedQty) {
			allFull = false
		}
	}

	switch {
	case anyZero:
		r.Status = ReceiptStatusInProgress
	case anyNonConforming:
		r.Status = ReceiptStatusWithDiscrepancy
	case allFull:
		r.Status = ReceiptStatusComplete
	default:
		r.Status = ReceiptStatusPartial
	}

	return r.Status
}

// ReadyToFinalize returns true when every line is controlled
func (r *GoodsReceipt) ReadyToFinalize() bool {
	for _, line := range r.Lines {
		if !line.Controlled() {
			return false
		}
	}
	return true
}
