package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventObjectsEnqueued  EventType = "objects_enqueued"
	EventObjectsFrozen    EventType = "objects_frozen"
	EventObjectsUnfrozen  EventType = "objects_unfrozen"
	EventObjectReenqueued EventType = "object_reenqueued"
	EventUserLoggedIn     EventType = "user_logged_in"
	EventUserRegistered   EventType = "user_registered"
)

// Actor identifies who triggered an event. UserID is nil for CLI actions.
type Actor struct {
	UserID *int64 `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	IP     string `json:"ip,omitempty"`
}

// Event represents an action worth recording in the audit log.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps a new event with an id and the current time.
func NewEvent(eventType EventType, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// ObjectsEnqueuedPayload payload.
type ObjectsEnqueuedPayload struct {
	Requested int `json:"requested"`
	Enqueued  int `json:"enqueued"`
}

// ObjectsFrozenPayload payload.
type ObjectsFrozenPayload struct {
	ObjectIDs         []int64 `json:"object_ids"`
	Reason            string  `json:"reason"`
	Frozen            int     `json:"frozen"`
	CancelledPackages int     `json:"cancelled_packages"`
}

// ObjectsUnfrozenPayload payload.
type ObjectsUnfrozenPayload struct {
	ObjectIDs []int64 `json:"object_ids,omitempty"`
	Reason    *string `json:"reason,omitempty"`
	Enqueue   bool    `json:"enqueue"`
	Count     int     `json:"count"`
}

// ObjectReenqueuedPayload payload.
type ObjectReenqueuedPayload struct {
	ObjectID int64 `json:"object_id"`
}
