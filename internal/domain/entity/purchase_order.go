package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a purchase order
type OrderStatus string

const (
	OrderStatusDraft             OrderStatus = "DRAFT"
	OrderStatusPendingValidation OrderStatus = "PENDING_VALIDATION"
	OrderStatusValidated         OrderStatus = "VALIDATED"
	OrderStatusApproved          OrderStatus = "APPROVED"
	OrderStatusSent              OrderStatus = "SENT"
	OrderStatusRejected          OrderStatus = "REJECTED"
	OrderStatusCancelled         OrderStatus = "CANCELLED"
)

var validOrderStatuses = map[OrderStatus]bool{
	OrderStatusDraft:             true,
	OrderStatusPendingValidation: true,
	OrderStatusValidated:         true,
	OrderStatusApproved:          true,
	OrderStatusSent:              true,
	OrderStatusRejected:          true,
	OrderStatusCancelled:         true,
}

var terminalOrderStatuses = map[OrderStatus]bool{
	OrderStatusSent:      true,
	OrderStatusRejected:  true,
	OrderStatusCancelled: true,
}

// IsValid returns true if the status is a known order status
func (s OrderStatus) IsValid() bool {
	return validOrderStatuses[s]
}

// IsTerminal returns true if no further transitions are allowed
func (s OrderStatus) IsTerminal() bool {
	return terminalOrderStatuses[s]
}

// String returns the string representation of the status
func (s OrderStatus) String() string {
	return string(s)
}

// PurchaseOrder is the binding order sent to a supplier. Above the
// validation threshold it goes through a validate-then-approve chain;
// below it, submission validates it directly.
type PurchaseOrder struct {
	ID              int64           `json:"id"`
	Number          string          `json:"number"`
	ProformaID      *int64          `json:"proforma_id,omitempty"`
	RequestID       *int64          `json:"request_id,omitempty"`
	BuyerID         int64           `json:"buyer_id"`
	SupplierID      int64           `json:"supplier_id"`
	TotalHT         decimal.Decimal `json:"total_ht"`
	TotalTVA        decimal.Decimal `json:"total_tva"`
	TotalTTC        decimal.Decimal `json:"total_ttc"`
	Status          OrderStatus     `json:"status"`
	ValidatorID     *int64          `json:"validator_id,omitempty"`
	FinalApproverID *int64          `json:"final_approver_id,omitempty"`
	Version         int64           `json:"version"`
	Lines           []OrderLine     `json:"lines,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderLine is one ordered article
type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ArticleCode string          `json:"article_code"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"` // HT
}

// Total returns quantity x unit price for the line
func (l OrderLine) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}
