package entity

// Actor identifies the person performing a workflow action. Every engine
// entry point receives the actor explicitly; nothing reads ambient session
// state.
type Actor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
