package entity

import "time"

// ProformaStatus is the lifecycle state of a supplier proforma
type ProformaStatus string

const (
	ProformaStatusDraft       ProformaStatus = "DRAFT"
	ProformaStatusAccepted    ProformaStatus = "ACCEPTED"
	ProformaStatusRejected    ProformaStatus = "REJECTED"
	ProformaStatusTransformed ProformaStatus = "TRANSFORMED"
)

var validProformaStatuses = map[ProformaStatus]bool{
	ProformaStatusDraft:       true,
	ProformaStatusAccepted:    true,
	ProformaStatusRejected:    true,
	ProformaStatusTransformed: true,
}

var terminalProformaStatuses = map[ProformaStatus]bool{
	ProformaStatusRejected:    true,
	ProformaStatusTransformed: true,
}

// IsValid returns true if the status is a known proforma status
func (s ProformaStatus) IsValid() bool {
	return validProformaStatuses[s]
}

// IsTerminal returns true if no further transitions are allowed
func (s ProformaStatus) IsTerminal() bool {
	return terminalProformaStatuses[s]
}

// String returns the string representation of the status
func (s ProformaStatus) String() string {
	return string(s)
}

// Proforma is the supplier's proposed pricing for an approved purchase
// request. At most one non-rejected proforma may exist per request; a
// rejected proforma is superseded and a new one may be created.
type Proforma struct {
	ID         int64          `json:"id"`
	Number     string         `json:"number"`
	RequestID  int64          `json:"request_id"`
	SupplierID int64          `json:"supplier_id"`
	Status     ProformaStatus `json:"status"`
	Version    int64          `json:"version"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
