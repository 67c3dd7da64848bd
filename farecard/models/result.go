package models

// MutationResult reports the state right after a committed balance mutation.
type MutationResult struct {
	NewBalance int64
	EntryID    string
}
