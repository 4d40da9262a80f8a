package approval

import "errors"

var (
	// ErrThresholdViolation flags an approval treated as sufficient at an
	// insufficient level. Unreachable when the resolver is used correctly;
	// kept as an internal consistency check.
	ErrThresholdViolation = errors.New("approval level below required threshold")
)
