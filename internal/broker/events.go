package broker

import (
	"context"

	"catalog-mirror/internal/models"
)

// EventPublisher handles publishing sync events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishSyncCompleted publishes a ProductsSynced or OrdersSynced event.
// Events are keyed by resource so runs of one resource stay ordered.
func (ep *EventPublisher) PublishSyncCompleted(ctx context.Context, event *models.SyncCompletedEvent) error {
	return ep.producer.PublishEvent(ctx, "sync-"+event.Resource, event)
}
