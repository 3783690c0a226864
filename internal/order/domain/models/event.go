package models

import "time"

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
)

// OrderEvent is published after every committed write to the order ledger.
type OrderEvent struct {
	Type       EventType `json:"type"`
	Order      Order     `json:"order"`
	OldStatus  Status    `json:"old_status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RoutingKey is the broker topic for the event, e.g. "order.preparing".
func (e OrderEvent) RoutingKey() string {
	return "order." + string(e.Order.Status)
}
