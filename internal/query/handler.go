package query

import (
	"context"
	"slices"

	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/filter"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/pricing"
	"github.com/example/ec-storefront/internal/projection"
	"github.com/example/ec-storefront/internal/readmodel"
)

// Catalog is the read side of the catalog cache
type Catalog interface {
	Products() []catalog.Product
	Product(id string) (catalog.Product, bool)
	Entities(kind catalog.EntityKind) []catalog.Entity
}

// CartLoader loads a cart from the event store
type CartLoader interface {
	Get(ctx context.Context, ownerID string) (*cart.Cart, error)
}

type Handler struct {
	catalog   Catalog
	readStore store.ReadStoreInterface
	carts     CartLoader
}

// NewHandler builds the query side. carts may be nil, in which case carts
// are served from the projection only.
func NewHandler(c Catalog, readStore store.ReadStoreInterface, carts CartLoader) *Handler {
	return &Handler{catalog: c, readStore: readStore, carts: carts}
}

// Products

// ListProducts returns the visible products for a filter state
func (h *Handler) ListProducts(state filter.State) []catalog.Product {
	return filter.FilterAndSort(h.catalog.Products(), state)
}

// GetProduct returns an active product; inactive products are not found
func (h *Handler) GetProduct(id string) (catalog.Product, error) {
	p, ok := h.catalog.Product(id)
	if !ok || !p.IsActive {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (h *Handler) ListEntities(kind catalog.EntityKind) []catalog.Entity {
	return h.catalog.Entities(kind)
}

// Cart

// GetCart returns the owner's cart loaded from the event store, so a shopper
// reads their own writes whichever replica projected them. When the load
// fails the projected cart is served instead, empty if nothing was projected.
func (h *Handler) GetCart(ctx context.Context, ownerID string) *readmodel.CartReadModel {
	cartID := cart.GetCartID(ownerID)
	if h.carts != nil {
		c, err := h.carts.Get(ctx, ownerID)
		if err == nil {
			return projection.CartView(c)
		}
		logger.Warn(ctx).Err(err).Str("component", "query").Str("cart_id", cartID).Msg("load cart, serving projection")
	}
	if data, ok := h.readStore.Get(store.CollectionCarts, cartID); ok {
		return data.(*readmodel.CartReadModel)
	}
	return &readmodel.CartReadModel{
		ID:      cartID,
		OwnerID: ownerID,
		Items:   []readmodel.CartItemReadModel{},
		Totals:  pricing.ComputeTotals(nil, nil).Display(),
	}
}

// Orders

// GetOrder returns an order owned by ownerID
func (h *Handler) GetOrder(ownerID, id string) (*readmodel.OrderReadModel, error) {
	data, ok := h.readStore.Get(store.CollectionOrders, id)
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	o := data.(*readmodel.OrderReadModel)
	if o.OwnerID != ownerID {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

// ListOrders returns the owner's orders, newest first
func (h *Handler) ListOrders(ownerID string) []*readmodel.OrderReadModel {
	orders := []*readmodel.OrderReadModel{}
	for _, item := range h.readStore.GetAll(store.CollectionOrders) {
		o := item.(*readmodel.OrderReadModel)
		if o.OwnerID == ownerID {
			orders = append(orders, o)
		}
	}
	slices.SortFunc(orders, func(a, b *readmodel.OrderReadModel) int {
		return b.PlacedAt.Compare(a.PlacedAt)
	})
	return orders
}
