package syncqueue

import (
	"encoding/json"
	"time"
)

type EntityType string

const (
	TypeChallenges   EntityType = "challenges"
	TypeParticipants EntityType = "participants"
	TypeCheckins     EntityType = "checkins"
	TypeProfile      EntityType = "profile"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// PendingSyncItem is one failed remote push, held for later replay. Data is
// the full entity JSON as it was attempted, not a partial patch.
type PendingSyncItem struct {
	Type      EntityType      `json:"type"`
	Action    Action          `json:"action"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}
