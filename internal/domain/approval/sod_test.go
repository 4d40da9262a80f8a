package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckApprover(t *testing.T) {
	assert.Nil(t, CheckApprover(1, 2))

	err := CheckApprover(7, 7)
	require.NotNil(t, err)
	assert.Equal(t, RuleCreatorApprover, err.Rule)
	assert.Equal(t, int64(7), err.ActorID)
}

func TestCheckInvoiceValidator(t *testing.T) {
	assert.Nil(t, CheckInvoiceValidator(3, nil))
	assert.Nil(t, CheckInvoiceValidator(3, []int64{1, 2}))

	err := CheckInvoiceValidator(2, []int64{1, 2})
	require.NotNil(t, err)
	assert.Equal(t, RuleReceiverValidator, err.Rule)
	assert.Equal(t, int64(2), err.ActorID)
}

func TestCheckAdjustmentValidator(t *testing.T) {
	tests := []struct {
		name        string
		validatorID int64
		wantRule    string
	}{
		{name: "independent validator", validatorID: 9, wantRule: ""},
		{name: "validator is requester", validatorID: 1, wantRule: RuleRequesterValidator},
		{name: "validator is first counter", validatorID: 2, wantRule: RuleCounterValidator},
		{name: "validator is second counter", validatorID: 3, wantRule: RuleCounterValidator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAdjustmentValidator(tt.validatorID, 1, 2, 3)
			if tt.wantRule == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.wantRule, err.Rule)
		})
	}
}

func TestConflictOfInterestError_Message(t *testing.T) {
	err := &ConflictOfInterestError{Rule: RuleCreatorApprover, ActorID: 42}
	assert.Equal(t, "conflict of interest (creator=approver): actor 42", err.Error())

	err = &ConflictOfInterestError{Rule: RuleRequesterValidator, ActorID: 42}
	assert.Equal(t, "conflict of interest (requester=validator): actor 42", err.Error())
}
