package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
}

// NewEvent builds the next event of an aggregate
func NewEvent(aggregateID, aggregateType, eventType string, data any, version int) (Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       version,
	}, nil
}

// EventStore keeps events in memory. Carts reset when the process restarts.
type EventStore struct {
	mu        sync.RWMutex
	events    map[string][]Event // aggregateID -> events
	order     []Event            // global append order for replay
	snapshots map[string]Snapshot
	publisher Publisher
}

func NewEventStore(publisher Publisher) *EventStore {
	return &EventStore{
		events:    make(map[string][]Event),
		snapshots: make(map[string]Snapshot),
		publisher: publisher,
	}
}

// Append stores an event and publishes it. A publish failure does not fail the append.
func (es *EventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error) {
	es.mu.Lock()
	event, err := NewEvent(aggregateID, aggregateType, eventType, data, len(es.events[aggregateID])+1)
	if err != nil {
		es.mu.Unlock()
		return nil, err
	}
	es.events[aggregateID] = append(es.events[aggregateID], event)
	es.order = append(es.order, event)
	es.mu.Unlock()

	deliver(ctx, es.publisher, event)

	return &event, nil
}

// GetEventsFromVersion returns events with a version greater than fromVersion
func (es *EventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, fromVersion int) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	events := es.events[aggregateID]
	i := sort.Search(len(events), func(i int) bool { return events[i].Version > fromVersion })
	return append([]Event(nil), events[i:]...), nil
}

// GetAllEvents returns every event in append order
func (es *EventStore) GetAllEvents(ctx context.Context) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return append([]Event(nil), es.order...), nil
}

// SaveSnapshot replaces the aggregate's snapshot
func (es *EventStore) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.snapshots[snapshot.AggregateID] = *snapshot
	return nil
}

// GetSnapshot returns the latest snapshot, or nil when none exists
func (es *EventStore) GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()
	s, ok := es.snapshots[aggregateID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}
