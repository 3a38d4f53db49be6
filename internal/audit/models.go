package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action classifies audit entries. STATUS_CHANGE is kept distinct from UPDATE
// because the dashboard's efficiency metric counts both but the history view
// renders them differently.
type Action string

const (
	ActionCreate       Action = "CREATE"
	ActionUpdate       Action = "UPDATE"
	ActionDelete       Action = "DELETE"
	ActionView         Action = "VIEW"
	ActionStatusChange Action = "STATUS_CHANGE"
)

// Entry is one immutable audit record. Keep it transport-agnostic so stores
// and the Kafka sink can fan out from the same value.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	Actor       string    `json:"actor,omitempty"`
	Action      Action    `json:"action"`
	TargetModel string    `json:"target_model"`
	TargetID    string    `json:"target_id"`
	Details     string    `json:"details,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	// Device is the parsed user-agent display name of the actor's browser,
	// recorded for back office forensics.
	Device     string    `json:"device,omitempty"`
	OccurredAt time.Time `json:"timestamp"`
}
