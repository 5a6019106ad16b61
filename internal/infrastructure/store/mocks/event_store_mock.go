package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-storefront/internal/infrastructure/store"
)

// MockEventStore is a mock implementation of EventStoreInterface for testing
type MockEventStore struct {
	mu        sync.RWMutex
	events    map[string][]store.Event
	order     []store.Event
	snapshots map[string]store.Snapshot

	// For tracking calls in tests
	AppendCalls       []AppendCall
	SaveSnapshotCalls []store.Snapshot
	AppendErr         error
	GetEventsErr      error
	SaveSnapshotErr   error
	AppendCallback    func(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*store.Event, error)
}

// AppendCall records parameters passed to Append
type AppendCall struct {
	AggregateID   string
	AggregateType string
	EventType     string
	Data          any
}

func NewMockEventStore() *MockEventStore {
	return &MockEventStore{
		events:    make(map[string][]store.Event),
		snapshots: make(map[string]store.Snapshot),
	}
}

// Append records the call and stores the event unless AppendErr or AppendCallback is set
func (m *MockEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*store.Event, error) {
	m.mu.Lock()
	m.AppendCalls = append(m.AppendCalls, AppendCall{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
	})
	callback := m.AppendCallback
	m.mu.Unlock()

	if callback != nil {
		return callback(ctx, aggregateID, aggregateType, eventType, data)
	}
	if m.AppendErr != nil {
		return nil, m.AppendErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	event, err := m.addLocked(aggregateID, aggregateType, eventType, data)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (m *MockEventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, fromVersion int) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetEventsErr != nil {
		return nil, m.GetEventsErr
	}

	var events []store.Event
	for _, e := range m.events[aggregateID] {
		if e.Version > fromVersion {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *MockEventStore) GetAllEvents(ctx context.Context) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]store.Event(nil), m.order...), nil
}

func (m *MockEventStore) SaveSnapshot(ctx context.Context, snapshot *store.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveSnapshotCalls = append(m.SaveSnapshotCalls, *snapshot)
	if m.SaveSnapshotErr != nil {
		return m.SaveSnapshotErr
	}
	m.snapshots[snapshot.AggregateID] = *snapshot
	return nil
}

func (m *MockEventStore) GetSnapshot(ctx context.Context, aggregateID string) (*store.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snapshots[aggregateID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// AddEvent adds a single event for testing without recording a call
func (m *MockEventStore) AddEvent(aggregateID, aggregateType, eventType string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.addLocked(aggregateID, aggregateType, eventType, data)
	return err
}

// EventTypes lists the recorded Append event types in call order
func (m *MockEventStore) EventTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	types := make([]string, 0, len(m.AppendCalls))
	for _, c := range m.AppendCalls {
		types = append(types, c.EventType)
	}
	return types
}

func (m *MockEventStore) addLocked(aggregateID, aggregateType, eventType string, data any) (store.Event, error) {
	event, err := store.NewEvent(aggregateID, aggregateType, eventType, data, len(m.events[aggregateID])+1)
	if err != nil {
		return store.Event{}, err
	}
	m.events[aggregateID] = append(m.events[aggregateID], event)
	m.order = append(m.order, event)
	return event, nil
}
