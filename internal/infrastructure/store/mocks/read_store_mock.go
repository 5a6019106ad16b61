package mocks

import (
	"sync"

	"github.com/example/ec-storefront/internal/infrastructure/store"
)

// Key addresses one read model
type Key struct {
	Collection string
	ID         string
}

// SetCall records a Set
type SetCall struct {
	Key
	Data any
}

// MockReadStore is an in-memory ReadStoreInterface that records writes and lookups
type MockReadStore struct {
	inner *store.ReadStore

	mu       sync.Mutex
	SetCalls []SetCall
	GetCalls []Key
}

func NewMockReadStore() *MockReadStore {
	return &MockReadStore{inner: store.NewReadStore()}
}

func (m *MockReadStore) Set(collection, id string, data any) {
	record(&m.mu, &m.SetCalls, SetCall{Key{collection, id}, data})
	m.inner.Set(collection, id, data)
}

func (m *MockReadStore) Get(collection, id string) (any, bool) {
	record(&m.mu, &m.GetCalls, Key{collection, id})
	return m.inner.Get(collection, id)
}

func (m *MockReadStore) GetAll(collection string) []any {
	return m.inner.GetAll(collection)
}

// SetData seeds a read model without recording a call
func (m *MockReadStore) SetData(collection, id string, data any) {
	m.inner.Set(collection, id, data)
}

// GetData reads a read model without recording a call
func (m *MockReadStore) GetData(collection, id string) (any, bool) {
	return m.inner.Get(collection, id)
}

func record[T any](mu *sync.Mutex, calls *[]T, call T) {
	mu.Lock()
	defer mu.Unlock()
	*calls = append(*calls, call)
}
