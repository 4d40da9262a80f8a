package workflow

import "context"

// StateMachine tracks the current state of one document and validates
// transitions against the configured table
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger has at least one transition
	// registered in the current state
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state
	// if a registered transition's guard allows it. Guard denials are
	// returned unchanged so typed business errors reach the caller.
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers registered in the current state
	PermittedTriggers() []Trigger
}
