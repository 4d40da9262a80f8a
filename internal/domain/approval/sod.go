package approval

import "fmt"

// Segregation-of-duties rules. Each predicate compares the proposed actor
// against the actors already recorded in the document chain and returns a
// *ConflictOfInterestError naming the rule that fired, or nil when allowed.
// Denials never pass silently; the caller aborts the transition.

const (
	// RuleCreatorApprover: a document's creator may not approve it
	RuleCreatorApprover = "creator=approver"

	// RuleReceiverValidator: a goods receiver may not validate the invoice
	// covering the same order
	RuleReceiverValidator = "receiver=validator"

	// RuleRequesterValidator: a stock adjustment validator may not have
	// requested the adjustment
	RuleRequesterValidator = "requester=validator"

	// RuleCounterValidator: a stock adjustment validator may not be either
	// counter of the underlying count
	RuleCounterValidator = "counter=validator"
)

// ConflictOfInterestError reports a segregation-of-duties violation
type ConflictOfInterestError struct {
	Rule    string
	ActorID int64
}

// Error implements the error interface
func (e *ConflictOfInterestError) Error() string {
	return fmt.Sprintf("conflict of interest (%s): actor %d", e.Rule, e.ActorID)
}

// CheckApprover denies an approval when the approver created the document
func CheckApprover(creatorID, approverID int64) *ConflictOfInterestError {
	if creatorID == approverID {
		return &ConflictOfInterestError{Rule: RuleCreatorApprover, ActorID: approverID}
	}
	return nil
}

// CheckInvoiceValidator denies invoice validation when the validator appears
// as receiver on any goods receipt linked to the invoice's order
func CheckInvoiceValidator(validatorID int64, receiverIDs []int64) *ConflictOfInterestError {
	for _, receiverID := range receiverIDs {
		if receiverID == validatorID {
			return &ConflictOfInterestError{Rule: RuleReceiverValidator, ActorID: validatorID}
		}
	}
	return nil
}

// CheckAdjustmentValidator denies stock adjustment validation when the
// validator requested the adjustment or produced one of the two counts
func CheckAdjustmentValidator(validatorID, requesterID, firstCounterID, secondCounterID int64) *ConflictOfInterestError {
	if validatorID == requesterID {
		return &ConflictOfInterestError{Rule: RuleRequesterValidator, ActorID: validatorID}
	}
	if validatorID == firstCounterID || validatorID == secondCounterID {
		return &ConflictOfInterestError{Rule: RuleCounterValidator, ActorID: validatorID}
	}
	return nil
}
