package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted from
	// the current state
	ErrInvalidTransition = errors.New("invalid state transition")
)
