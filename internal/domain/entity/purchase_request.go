package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the lifecycle state of a purchase request
type RequestStatus string

const (
	RequestStatusDraft          RequestStatus = "DRAFT"
	RequestStatusSubmitted      RequestStatus = "SUBMITTED"
	RequestStatusPendingFinance RequestStatus = "PENDING_FINANCE"
	RequestStatusApproved       RequestStatus = "APPROVED"
	RequestStatusRejected       RequestStatus = "REJECTED"
	RequestStatusCancelled      RequestStatus = "CANCELLED"
)

var validRequestStatuses = map[RequestStatus]bool{
	RequestStatusDraft:          true,
	RequestStatusSubmitted:      true,
	RequestStatusPendingFinance: true,
	RequestStatusApproved:       true,
	RequestStatusRejected:       true,
	RequestStatusCancelled:      true,
}

var terminalRequestStatuses = map[RequestStatus]bool{
	RequestStatusRejected:  true,
	RequestStatusCancelled: true,
}

// IsValid returns true if the status is a known request status
func (s RequestStatus) IsValid() bool {
	return validRequestStatuses[s]
}

// IsTerminal returns true if no further transitions are allowed
func (s RequestStatus) IsTerminal() bool {
	return terminalRequestStatuses[s]
}

// String returns the string representation of the status
func (s RequestStatus) String() string {
	return string(s)
}

// PurchaseRequest is the initial request to buy goods, subject to
// multi-level monetary approval followed by a finance funds check.
type PurchaseRequest struct {
	ID          int64           `json:"id"`
	Number      string          `json:"number"`
	RequesterID int64           `json:"requester_id"`
	Amount      decimal.Decimal `json:"amount"` // estimated total, HT
	Status      RequestStatus   `json:"status"`
	Version     int64           `json:"version"`
	Lines       []RequestLine   `json:"lines,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RequestLine is one requested article with an estimated price
type RequestLine struct {
	ID          int64           `json:"id"`
	RequestID   int64           `json:"request_id"`
	ArticleCode string          `json:"article_code"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"` // estimated, HT
}

// Total returns quantity x unit price for the line
func (l RequestLine) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// ComputeAmount returns the sum of all line totals
func (r *PurchaseRequest) ComputeAmount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range r.Lines {
		total = total.Add(line.Total())
	}
	return total
}

// ValidateAmount enforces amount == sum of line totals
func (r *PurchaseRequest) ValidateAmount() error {
	computed := r.ComputeAmount()
	if !r.Amount.Equal(computed) {
		return fmt.Errorf("request amount %s does not match line total %s", r.Amount, computed)
	}
	return nil
}
