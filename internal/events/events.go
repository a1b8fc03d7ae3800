// Package events publishes order lifecycle events for downstream consumers.
package events

import (
	"context"
	"time"
)

const (
	OrderStatusChanged       = "order.status_changed"
	CustomOrderResponded     = "custom_order.responded"
	CustomOrderStatusChanged = "custom_order.status_changed"
)

// Event is one domain event. AggregateID is used as the partition key so
// events of one order stay ordered.
type Event struct {
	ID             string            `json:"id"`
	Type           string            `json:"type"`
	AggregateType  string            `json:"aggregateType"`
	AggregateID    string            `json:"aggregateId"`
	PreviousStatus string            `json:"previousStatus,omitempty"`
	CurrentStatus  string            `json:"currentStatus,omitempty"`
	ActorID        string            `json:"actorId,omitempty"`
	OccurredAt     time.Time         `json:"occurredAt"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type noopPublisher struct{}

// Noop discards every event.
func Noop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) error { return nil }
