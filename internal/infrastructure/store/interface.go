package store

import (
	"context"

	"github.com/example/ec-storefront/internal/logger"
)

// EventStoreInterface defines the interface for event stores
type EventStoreInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error)
	GetEventsFromVersion(ctx context.Context, aggregateID string, fromVersion int) ([]Event, error)
	GetAllEvents(ctx context.Context) ([]Event, error)
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)
}

// Publisher delivers stored events to projections (Kafka or in-process)
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// deliver publishes an event that is already stored. A failure is logged
// and not returned: the append has happened, and startup replay rebuilds
// any read model that missed the event.
func deliver(ctx context.Context, publisher Publisher, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event.AggregateID, event); err != nil {
		log := logger.Component("store")
		log.Warn().Err(err).
			Str("aggregate_id", event.AggregateID).
			Str("event_type", event.EventType).
			Int("version", event.Version).
			Msg("publish failed after append")
	}
}
