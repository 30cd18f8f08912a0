package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventMediaPersisted EventType = "media.persisted"
	EventFlowCancelled  EventType = "flow.cancelled"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// MediaPersistedEvent is sent to the owning account when a flow finishes and
// its media has been persisted.
type MediaPersistedEvent struct {
	FlowID      string       `json:"flow_id"`
	UserID      string       `json:"user_id"`
	ContextType ContextType  `json:"context_type"`
	ContextID   string       `json:"context_id"`
	Mode        StorageMode  `json:"mode"`
	Files       []StoredFile `json:"files"`
	PersistedAt string       `json:"persisted_at"`
}

// FlowCancelledEvent is sent to the owning account when a user abandons an
// in-progress flow.
type FlowCancelledEvent struct {
	FlowID      string      `json:"flow_id"`
	UserID      string      `json:"user_id"`
	ContextType ContextType `json:"context_type"`
	ContextID   string      `json:"context_id"`
	CancelledAt string      `json:"cancelled_at"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
