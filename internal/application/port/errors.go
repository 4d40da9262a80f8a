package port

import "errors"

var (
	// ErrNotFound is returned when a referenced document or line does not exist
	ErrNotFound = errors.New("document not found")

	// ErrVersionConflict is returned when a versioned write loses a race:
	// the row was modified since it was read. The enclosing transaction
	// rolls back; the caller may reload and retry.
	ErrVersionConflict = errors.New("document version conflict")
)
