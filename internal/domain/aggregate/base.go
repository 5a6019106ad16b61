// Package aggregate loads and persists event-sourced aggregates with snapshots.
package aggregate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/logger"
)

// Aggregate defines the interface for event-sourced aggregates
type Aggregate interface {
	GetID() string
	GetVersion() int
	ApplyEvent(store.Event) error
}

// LoadAggregate restores the latest snapshot, if any, and replays the events after it.
// The boolean reports whether anything was found.
func LoadAggregate[T Aggregate](
	ctx context.Context,
	eventStore store.EventStoreInterface,
	id string,
	newAggregate func() T,
) (T, bool, error) {
	var zero T
	agg := newAggregate()

	snapshot, err := eventStore.GetSnapshot(ctx, id)
	if err != nil {
		return zero, false, fmt.Errorf("failed to get snapshot: %w", err)
	}

	fromVersion := 0
	if snapshot != nil {
		if err := json.Unmarshal(snapshot.State, agg); err != nil {
			return zero, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		fromVersion = snapshot.Version
	}

	events, err := eventStore.GetEventsFromVersion(ctx, id, fromVersion)
	if err != nil {
		return zero, false, fmt.Errorf("failed to get events: %w", err)
	}

	for _, event := range events {
		if err := agg.ApplyEvent(event); err != nil {
			return zero, false, fmt.Errorf("failed to apply event: %w", err)
		}
	}

	return agg, snapshot != nil || len(events) > 0, nil
}

// Commit appends one event, applies it to agg and snapshots on the threshold.
// A failed snapshot is not an error: the event is already durable.
func Commit(
	ctx context.Context,
	eventStore store.EventStoreInterface,
	agg Aggregate,
	aggregateType, eventType string,
	data any,
) (*store.Event, error) {
	event, err := eventStore.Append(ctx, agg.GetID(), aggregateType, eventType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to append %s: %w", eventType, err)
	}
	if err := agg.ApplyEvent(*event); err != nil {
		return nil, fmt.Errorf("failed to apply %s: %w", eventType, err)
	}
	if err := MaybeCreateSnapshot(ctx, eventStore, agg, aggregateType); err != nil {
		log := logger.Component("aggregate")
		log.Warn().Err(err).
			Str("aggregate_id", agg.GetID()).
			Int("version", agg.GetVersion()).
			Msg("snapshot failed")
	}
	return event, nil
}

// MaybeCreateSnapshot saves a snapshot every store.SnapshotThreshold versions
func MaybeCreateSnapshot(
	ctx context.Context,
	eventStore store.EventStoreInterface,
	agg Aggregate,
	aggregateType string,
) error {
	version := agg.GetVersion()
	if !store.SnapshotDue(version) {
		return nil
	}

	snapshot, err := store.NewSnapshot(agg.GetID(), aggregateType, version, agg)
	if err != nil {
		return err
	}
	if err := eventStore.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
