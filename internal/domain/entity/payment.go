package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusExecuted  PaymentStatus = "EXECUTED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

var validPaymentStatuses = map[PaymentStatus]bool{
	PaymentStatusPending:   true,
	PaymentStatusExecuted:  true,
	PaymentStatusCancelled: true,
}

var terminalPaymentStatuses = map[PaymentStatus]bool{
	PaymentStatusExecuted:  true,
	PaymentStatusCancelled: true,
}

// IsValid returns true if the status is a known payment status
func (s PaymentStatus) IsValid() bool {
	return validPaymentStatuses[s]
}

// IsTerminal returns true if no further transitions are allowed
func (s PaymentStatus) IsTerminal() bool {
	return terminalPaymentStatuses[s]
}

// String returns the string representation of the status
func (s PaymentStatus) String() string {
	return string(s)
}

// Payment settles a validated supplier invoice. An executed payment is
// immutable history and can no longer be cancelled.
type Payment struct {
	ID         int64           `json:"id"`
	Number     string          `json:"number"`
	InvoiceID  int64           `json:"invoice_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     PaymentStatus   `json:"status"`
	Version    int64           `json:"version"`
	ExecutedAt *time.Time      `json:"executed_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
