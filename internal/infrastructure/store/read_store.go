package store

import (
	"maps"
	"slices"
	"sync"
)

// ReadStore is an in-memory read model store, rebuilt by replay on startup
type ReadStore struct {
	mu   sync.RWMutex
	data map[string]map[string]any // collection -> id -> data
}

func NewReadStore() *ReadStore {
	return &ReadStore{
		data: make(map[string]map[string]any),
	}
}

func (rs *ReadStore) Set(collection, id string, data any) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.data[collection] == nil {
		rs.data[collection] = make(map[string]any)
	}
	rs.data[collection][id] = data
}

func (rs *ReadStore) Get(collection, id string) (any, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	data, ok := rs.data[collection][id]
	return data, ok
}

// GetAll returns the collection's items ordered by id
func (rs *ReadStore) GetAll(collection string) []any {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	byID := rs.data[collection]
	items := make([]any, 0, len(byID))
	for _, id := range slices.Sorted(maps.Keys(byID)) {
		items = append(items, byID[id])
	}
	return items
}
