package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotThreshold is how many versions pass between two snapshots of an aggregate
const SnapshotThreshold = 10

// Snapshot is the serialized state of an aggregate at Version. Loading
// replays only the events after it.
type Snapshot struct {
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	State         json.RawMessage `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SnapshotDue reports whether version lands on the snapshot threshold
func SnapshotDue(version int) bool {
	return version > 0 && version%SnapshotThreshold == 0
}

// NewSnapshot marshals state into a snapshot taken now
func NewSnapshot(aggregateID, aggregateType string, version int, state any) (*Snapshot, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal %s %s state: %w", aggregateType, aggregateID, err)
	}
	return &Snapshot{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       version,
		State:         raw,
		CreatedAt:     time.Now(),
	}, nil
}
