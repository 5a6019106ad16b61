package store

// ReadStoreInterface is the projection-side storage for read models
type ReadStoreInterface interface {
	Set(collection, id string, data any)
	Get(collection, id string) (any, bool)
	// GetAll returns every item of a collection, ordered by id
	GetAll(collection string) []any
}

// Read model collections
const (
	CollectionCarts  = "carts"
	CollectionOrders = "orders"
)
