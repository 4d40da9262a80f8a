package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stateDraft     State = "DRAFT"
	stateSubmitted State = "SUBMITTED"
	stateApproved  State = "APPROVED"
	stateRejected  State = "REJECTED"

	triggerSubmit  Trigger = "SUBMIT"
	triggerApprove Trigger = "APPROVE"
	triggerReject  Trigger = "REJECT"
)

func buildDocumentMachine() StateMachineBuilder {
	builder := NewBuilder()
	builder.Configure(stateDraft).
		Permit(triggerSubmit, stateSubmitted)
	builder.Configure(stateSubmitted).
		Permit(triggerApprove, stateApproved).
		Permit(triggerReject, stateRejected)
	return builder
}

func TestStateMachine_Fire(t *testing.T) {
	tests := []struct {
		name      string
		initial   State
		trigger   Trigger
		wantState State
		wantErr   bool
	}{
		{
			name:      "submit from draft",
			initial:   stateDraft,
			trigger:   triggerSubmit,
			wantState: stateSubmitted,
		},
		{
			name:      "approve from submitted",
			initial:   stateSubmitted,
			trigger:   triggerApprove,
			wantState: stateApproved,
		},
		{
			name:      "reject from submitted",
			initial:   stateSubmitted,
			trigger:   triggerReject,
			wantState: stateRejected,
		},
		{
			name:      "approve from draft is refused",
			initial:   stateDraft,
			trigger:   triggerApprove,
			wantState: stateDraft,
			wantErr:   true,
		},
		{
			name:      "no transitions out of terminal state",
			initial:   stateApproved,
			trigger:   triggerSubmit,
			wantState: stateApproved,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := buildDocumentMachine().Build(tt.initial)

			err := machine.Fire(context.Background(), tt.trigger)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTransition)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, machine.State())
		})
	}
}

func TestStateMachine_GuardDenialIsReturnedVerbatim(t *testing.T) {
	denial := errors.New("actor may not approve own document")

	builder := NewBuilder()
	builder.Configure(stateSubmitted).
		PermitIf(triggerApprove, stateApproved, func(ctx context.Context) error {
			return denial
		})

	machine := builder.Build(stateSubmitted)

	err := machine.Fire(context.Background(), triggerApprove)
	require.Error(t, err)
	assert.Equal(t, denial, err)
	assert.Equal(t, stateSubmitted, machine.State())
}

func TestStateMachine_FirstPassingGuardWins(t *testing.T) {
	// Two transitions registered for the same trigger; the first guard
	// denies, the second allows. The machine must land on the second target.
	builder := NewBuilder()
	builder.Configure(stateSubmitted).
		PermitIf(triggerApprove, stateApproved, func(ctx context.Context) error {
			return errors.New("level too low")
		}).
		PermitIf(triggerApprove, stateSubmitted, func(ctx context.Context) error {
			return nil
		})

	machine := builder.Build(stateSubmitted)

	require.NoError(t, machine.Fire(context.Background(), triggerApprove))
	assert.Equal(t, stateSubmitted, machine.State())
}

func TestStateMachine_AllGuardsDenyReturnsFirstDenial(t *testing.T) {
	first := errors.New("first denial")
	second := errors.New("second denial")

	builder := NewBuilder()
	builder.Configure(stateSubmitted).
		PermitIf(triggerApprove, stateApproved, func(ctx context.Context) error { return first }).
		PermitIf(triggerApprove, stateRejected, func(ctx context.Context) error { return second })

	machine := builder.Build(stateSubmitted)

	err := machine.Fire(context.Background(), triggerApprove)
	assert.Equal(t, first, err)
	assert.Equal(t, stateSubmitted, machine.State())
}

func TestStateMachine_CanFire(t *testing.T) {
	machine := buildDocumentMachine().Build(stateDraft)

	assert.True(t, machine.CanFire(triggerSubmit))
	assert.False(t, machine.CanFire(triggerApprove))
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	machine := buildDocumentMachine().Build(stateSubmitted)

	triggers := machine.PermittedTriggers()
	assert.ElementsMatch(t, []Trigger{triggerApprove, triggerReject}, triggers)
}

func TestStateMachine_BuilderReuseIsIsolated(t *testing.T) {
	builder := buildDocumentMachine()

	first := builder.Build(stateDraft)
	second := builder.Build(stateDraft)

	require.NoError(t, first.Fire(context.Background(), triggerSubmit))
	assert.Equal(t, stateSubmitted, first.State())
	assert.Equal(t, stateDraft, second.State())
}

func TestBuilder_PanicsOnEmptyState(t *testing.T) {
	assert.Panics(t, func() { NewBuilder().Configure("") })
	assert.Panics(t, func() { NewBuilder().Build("") })
}
