package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a notification emitted after a state change commits.
type EventType string

const (
	EventWalletCreated       EventType = "wallet.created"
	EventWalletCredited      EventType = "wallet.credited"
	EventWalletDebited       EventType = "wallet.debited"
	EventWalletTransfer      EventType = "wallet.transfer"
	EventWalletStatusChanged EventType = "wallet.status_changed"
	EventBidCreated          EventType = "bid.created"
	EventBidUpdated          EventType = "bid.updated"
	EventBidCancelled        EventType = "bid.cancelled"
	EventBidAccepted         EventType = "bid.accepted"
	EventBidRejected         EventType = "bid.rejected"
	EventBidCountered        EventType = "bid.countered"
	EventBidCounterRejected  EventType = "bid.counter_rejected"
	EventBidsExpired         EventType = "bid.expired"
	EventProposalCreated     EventType = "proposal.created"
	EventProposalWithdrawn   EventType = "proposal.withdrawn"
	EventProposalAccepted    EventType = "proposal.accepted"
	EventProposalRejected    EventType = "proposal.rejected"
)

// Event is the payload delivered to the notification webhook.
type Event struct {
	ID           uuid.UUID      `json:"id"`
	Type         EventType      `json:"type"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	ActorID      *uuid.UUID     `json:"actor_id,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// NewEvent stamps a new event with an id and the current time.
func NewEvent(eventType EventType, resourceType string, resourceID uuid.UUID, actor uuid.UUID, data map[string]any) Event {
	var actorID *uuid.UUID
	if actor != uuid.Nil {
		actorID = &actor
	}
	return Event{
		ID:           uuid.New(),
		Type:         eventType,
		ResourceType: resourceType,
		ResourceID:   resourceID.String(),
		ActorID:      actorID,
		Data:         data,
		OccurredAt:   time.Now().UTC(),
	}
}
