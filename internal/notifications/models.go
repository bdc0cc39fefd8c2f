package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventOrderCompleted   EventType = "order.completed"
	EventOrderCancelled   EventType = "order.cancelled"
	EventOrderFailed      EventType = "order.failed"
	EventOrderRefunded    EventType = "order.refunded"
	EventTicketCancelled  EventType = "ticket.cancelled"
	EventCreditsPurchased EventType = "credits.purchased"
)

// SettlementEvent is published after a ledger transaction commits
type SettlementEvent struct {
	ID         uuid.UUID              `json:"id"`
	Type       EventType              `json:"type"`
	OrderID    *uuid.UUID             `json:"order_id,omitempty"`
	EventID    *uuid.UUID             `json:"event_id,omitempty"`
	ActorID    *uuid.UUID             `json:"actor_id,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type EventBuilder struct {
	event *SettlementEvent
}

func NewEventBuilder(eventType EventType) *EventBuilder {
	return &EventBuilder{
		event: &SettlementEvent{
			ID:         uuid.New(),
			Type:       eventType,
			Data:       make(map[string]interface{}),
			OccurredAt: time.Now().UTC(),
		},
	}
}

func (b *EventBuilder) WithOrder(orderID uuid.UUID) *EventBuilder {
	b.event.OrderID = &orderID
	return b
}

func (b *EventBuilder) WithEvent(eventID uuid.UUID) *EventBuilder {
	b.event.EventID = &eventID
	return b
}

func (b *EventBuilder) WithActor(actorID uuid.UUID) *EventBuilder {
	if actorID != uuid.Nil {
		b.event.ActorID = &actorID
	}
	return b
}

func (b *EventBuilder) With(key string, value interface{}) *EventBuilder {
	b.event.Data[key] = value
	return b
}

func (b *EventBuilder) Build() *SettlementEvent {
	return b.event
}

// PartitionKey keeps every event of one order on the same partition
func (e *SettlementEvent) PartitionKey() string {
	switch {
	case e.OrderID != nil:
		return e.OrderID.String()
	case e.ActorID != nil:
		return e.ActorID.String()
	default:
		return e.ID.String()
	}
}

func (e *SettlementEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
