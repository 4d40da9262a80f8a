package entity

import "time"

// ApprovalDecision is the outcome recorded by one approver
type ApprovalDecision string

const (
	DecisionApproved          ApprovalDecision = "APPROVED"
	DecisionRejected          ApprovalDecision = "REJECTED"
	DecisionFundsOK           ApprovalDecision = "FUNDS_OK"
	DecisionFundsInsufficient ApprovalDecision = "FUNDS_INSUFFICIENT"
)

// LevelFinance marks the finance funds-availability decision, outside the
// 1..3 hierarchical chain
const LevelFinance = 99

// ApprovalRecord is one decision in a request's approval chain. Records are
// append-only history: never mutated, never deleted, even when the request
// itself is cancelled. A request below the lowest threshold still gets a
// level-0 record so the audit chain has at least one decision.
type ApprovalRecord struct {
	ID         int64            `json:"id"`
	RequestID  int64            `json:"request_id"`
	ApproverID int64            `json:"approver_id"`
	Level      int              `json:"level"`
	Decision   ApprovalDecision `json:"decision"`
	Comment    string           `json:"comment,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
