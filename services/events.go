package services

import "tribeTrackerSync/internal/types/syncqueue"

// MutationEvent is the "mutation applied" record the dispatcher hands to the
// sync engine after the in-memory collection has already changed. The local
// write never waits on, and is never rolled back by, anything downstream.
type MutationEvent struct {
	Type   syncqueue.EntityType
	Action syncqueue.Action
	ID     string
	// Entity is the full entity snapshot at dispatch time. It is nil for
	// partial mutations (habit completion, participant stats); the sync
	// engine resolves those from the live collection by ID because the
	// remote API expects complete records.
	Entity any
}

// Session is the identity the auth provider hands us: a user and a bearer
// token. The zero value means signed out.
type Session struct {
	UserID string
	Token  string
}

func (s Session) Authenticated() bool {
	return s.UserID != "" && s.Token != ""
}
