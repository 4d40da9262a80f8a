package workflow

// State identifies a document state within a lifecycle. Each document type
// declares its own closed set of states; validity is established by the
// transitions registered on the builder, not by a global list.
type State string

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// Trigger represents an action that can cause a state transition
type Trigger string

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
