package catalog

import (
	"errors"
	"sync"
	"time"
)

// CollectionProducts names the product list among the cached collections.
// Entity lists use their EntityKind as collection name.
const CollectionProducts = "products"

var ErrProductNotFound = errors.New("product not found")

// Cache holds the latest catalog data fetched from the backend.
//
// Every fetch takes a ticket with Begin before it starts. A response is
// committed only when its ticket is newer than the last committed one for
// that collection, so a slow response can never overwrite a newer one.
// Committed slices are replaced, never mutated, and may be shared with readers.
type Cache struct {
	mu        sync.RWMutex
	products  []Product
	byID      map[string]int
	entities  map[EntityKind][]Entity
	issued    map[string]uint64
	committed map[string]uint64
	updatedAt map[string]time.Time

	onStale func(collection string)
}

// NewCache creates an empty cache. onStale, if set, is called for every discarded response.
func NewCache(onStale func(collection string)) *Cache {
	return &Cache{
		products:  []Product{},
		byID:      make(map[string]int),
		entities:  make(map[EntityKind][]Entity),
		issued:    make(map[string]uint64),
		committed: make(map[string]uint64),
		updatedAt: make(map[string]time.Time),
		onStale:   onStale,
	}
}

// Begin issues the next ticket for a collection
func (c *Cache) Begin(collection string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued[collection]++
	return c.issued[collection]
}

// CommitProducts stores the product list if ticket is the newest seen
func (c *Cache) CommitProducts(ticket uint64, products []Product) bool {
	c.mu.Lock()
	if !c.acceptLocked(CollectionProducts, ticket) {
		c.mu.Unlock()
		c.stale(CollectionProducts)
		return false
	}
	if products == nil {
		products = []Product{}
	}
	byID := make(map[string]int, len(products))
	for i, p := range products {
		if _, dup := byID[p.ID]; !dup {
			byID[p.ID] = i
		}
	}
	c.products = products
	c.byID = byID
	c.mu.Unlock()
	return true
}

// CommitEntities stores one taxonomy list if ticket is the newest seen
func (c *Cache) CommitEntities(kind EntityKind, ticket uint64, entities []Entity) bool {
	c.mu.Lock()
	if !c.acceptLocked(string(kind), ticket) {
		c.mu.Unlock()
		c.stale(string(kind))
		return false
	}
	if entities == nil {
		entities = []Entity{}
	}
	c.entities[kind] = entities
	c.mu.Unlock()
	return true
}

func (c *Cache) acceptLocked(collection string, ticket uint64) bool {
	if ticket <= c.committed[collection] {
		return false
	}
	c.committed[collection] = ticket
	c.updatedAt[collection] = time.Now()
	return true
}

func (c *Cache) stale(collection string) {
	if c.onStale != nil {
		c.onStale(collection)
	}
}

// Products returns the cached product list in backend order. Callers must not modify it.
func (c *Cache) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.products
}

func (c *Cache) Product(id string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Entities returns a taxonomy list, empty when never loaded
func (c *Cache) Entities(kind EntityKind) []Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entities[kind]; ok {
		return e
	}
	return []Entity{}
}

// Loaded reports whether a collection has ever been committed
func (c *Cache) Loaded(collection string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.committed[collection] > 0
}

// UpdatedAt returns when a collection was last committed
func (c *Cache) UpdatedAt(collection string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.updatedAt[collection]
	return t, ok
}
