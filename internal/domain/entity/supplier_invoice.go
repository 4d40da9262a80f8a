package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of a supplier invoice
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusValidated InvoiceStatus = "VALIDATED"
	InvoiceStatusBlocked   InvoiceStatus = "BLOCKED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
)

var validInvoiceStatuses = map[InvoiceStatus]bool{
	InvoiceStatusPending:   true,
	InvoiceStatusValidated: true,
	InvoiceStatusBlocked:   true,
	InvoiceStatusPaid:      true,
}

var terminalInvoiceStatuses = map[InvoiceStatus]bool{
	InvoiceStatusPaid: true,
}

// IsValid returns true if the status is a known invoice status
func (s InvoiceStatus) IsValid() bool {
	return validInvoiceStatuses[s]
}

// IsTerminal returns true if no further transitions are allowed
func (s InvoiceStatus) IsTerminal() bool {
	return terminalInvoiceStatuses[s]
}

// String returns the string representation of the status
func (s InvoiceStatus) String() string {
	return string(s)
}

// SupplierInvoice is the supplier's bill, reconciled against the order and
// its receipts before payment is allowed. MatchOK and DiscrepancyReport are
// outputs of the three-way match, always recomputed from current data.
type SupplierInvoice struct {
	ID                int64           `json:"id"`
	Number            string          `json:"number"`
	SupplierID        int64           `json:"supplier_id"`
	OrderID           *int64          `json:"order_id,omitempty"`
	TotalTTC          decimal.Decimal `json:"total_ttc"`
	Status            InvoiceStatus   `json:"status"`
	MatchOK           bool            `json:"match_ok"`
	DiscrepancyReport string          `json:"discrepancy_report,omitempty"`
	ValidatorID       *int64          `json:"validator_id,omitempty"`
	Version           int64           `json:"version"`
	Lines             []InvoiceLine   `json:"lines,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// InvoiceLine is one invoiced article
type InvoiceLine struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	ArticleCode string          `json:"article_code"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Total returns quantity x unit price for the line
func (l InvoiceLine) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}
