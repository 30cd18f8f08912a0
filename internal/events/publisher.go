package events

import (
	"time"

	"github.com/shiftmate/mediaflow-service/internal/types"
)

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToOwner(ownerID string, event *types.Event)
	IsOwnerConnected(ownerID string) bool
}

// EventPublisher pushes flow lifecycle events to the owning account's
// connected dashboard.
type EventPublisher struct {
	hub WebSocketHub
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
	}
}

// PublishMediaPersisted notifies the owner that a flow finished and its media
// was persisted.
func (p *EventPublisher) PublishMediaPersisted(flow *types.MediaFlow, mode types.StorageMode, files []types.StoredFile) error {
	// Only send if the owner's dashboard is connected
	if !p.hub.IsOwnerConnected(flow.OwnerID) {
		return nil
	}

	eventData := &types.MediaPersistedEvent{
		FlowID:      flow.ID,
		UserID:      flow.UserID,
		ContextType: flow.ContextType,
		ContextID:   flow.ContextID,
		Mode:        mode,
		Files:       files,
		PersistedAt: time.Now().UTC().Format(time.RFC3339),
	}

	event := types.NewEvent(types.EventMediaPersisted, eventData)
	p.hub.BroadcastToOwner(flow.OwnerID, event)

	return nil
}

// PublishFlowCancelled notifies the owner that a user abandoned a flow.
func (p *EventPublisher) PublishFlowCancelled(flow *types.MediaFlow) error {
	if !p.hub.IsOwnerConnected(flow.OwnerID) {
		return nil
	}

	eventData := &types.FlowCancelledEvent{
		FlowID:      flow.ID,
		UserID:      flow.UserID,
		ContextType: flow.ContextType,
		ContextID:   flow.ContextID,
		CancelledAt: time.Now().UTC().Format(time.RFC3339),
	}

	event := types.NewEvent(types.EventFlowCancelled, eventData)
	p.hub.BroadcastToOwner(flow.OwnerID, event)

	return nil
}
