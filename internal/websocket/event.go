package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to the entity
type EventType string

const (
	EventTypeReplaced EventType = "replaced"
	EventTypeChanged  EventType = "changed"
	EventTypeExpired  EventType = "expired"
)

// EntityType represents the part of the dashboard the event is about
type EntityType string

const (
	EntityTypeSnapshot EntityType = "snapshot"
	EntityTypeView     EntityType = "view"
	EntityTypeSession  EntityType = "session"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "snapshot.replaced"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "snapshot"
	Payload   interface{} `json:"payload"`   // Projection or state data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SnapshotReplaced creates a snapshot.replaced event
func SnapshotReplaced(payload interface{}) Event {
	return NewEvent(EventTypeReplaced, EntityTypeSnapshot, payload)
}

// ViewChanged creates a view.changed event
func ViewChanged(payload interface{}) Event {
	return NewEvent(EventTypeChanged, EntityTypeView, payload)
}

// SessionExpired creates a session.expired event
func SessionExpired(payload interface{}) Event {
	return NewEvent(EventTypeExpired, EntityTypeSession, payload)
}
