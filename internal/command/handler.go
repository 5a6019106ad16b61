package command

import (
	"context"
	"errors"

	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/metrics"
	"github.com/example/ec-storefront/internal/projection"
	"github.com/example/ec-storefront/internal/readmodel"
)

// ProductLookup resolves products from the catalog cache
type ProductLookup interface {
	Product(id string) (catalog.Product, bool)
}

// Handler runs cart and order commands. Cart commands return the updated
// cart directly, so callers never wait on the projection.
type Handler struct {
	products ProductLookup
	cartSvc  *cart.Service
	orderSvc *order.Service
	metrics  *metrics.Metrics
}

func NewHandler(products ProductLookup, cartSvc *cart.Service, orderSvc *order.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		products: products,
		cartSvc:  cartSvc,
		orderSvc: orderSvc,
		metrics:  m,
	}
}

// AddToCart adds one unit of a catalog product
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) (*readmodel.CartReadModel, error) {
	p, ok := h.products.Product(cmd.ProductID)
	if !ok {
		h.record("add", catalog.ErrProductNotFound)
		return nil, catalog.ErrProductNotFound
	}
	c, err := h.cartSvc.AddItem(ctx, cmd.OwnerID, p)
	return h.cartResult("add", c, err)
}

func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) (*readmodel.CartReadModel, error) {
	c, err := h.cartSvc.RemoveItem(ctx, cmd.OwnerID, cmd.ProductID)
	return h.cartResult("remove", c, err)
}

func (h *Handler) IncrementQuantity(ctx context.Context, cmd IncrementQuantity) (*readmodel.CartReadModel, error) {
	c, err := h.cartSvc.IncrementQuantity(ctx, cmd.OwnerID, cmd.ProductID)
	return h.cartResult("increment", c, err)
}

func (h *Handler) DecrementQuantity(ctx context.Context, cmd DecrementQuantity) (*readmodel.CartReadModel, error) {
	c, err := h.cartSvc.DecrementQuantity(ctx, cmd.OwnerID, cmd.ProductID)
	return h.cartResult("decrement", c, err)
}

func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) (*readmodel.CartReadModel, error) {
	c, err := h.cartSvc.Clear(ctx, cmd.OwnerID)
	return h.cartResult("clear", c, err)
}

func (h *Handler) ApplyCoupon(ctx context.Context, cmd ApplyCoupon) (*readmodel.CartReadModel, error) {
	c, err := h.cartSvc.ApplyCoupon(ctx, cmd.OwnerID, cmd.Code)
	return h.cartResult("apply_coupon", c, err)
}

func (h *Handler) RemoveCoupon(ctx context.Context, cmd RemoveCoupon) (*readmodel.CartReadModel, error) {
	c, err := h.cartSvc.RemoveCoupon(ctx, cmd.OwnerID)
	return h.cartResult("remove_coupon", c, err)
}

// PlaceOrder checks out the owner's cart and clears it on success.
// The cart stays locked from load to clear, so a cart is submitted once.
func (h *Handler) PlaceOrder(ctx context.Context, cmd PlaceOrder) (*readmodel.OrderReadModel, error) {
	var o *order.Order
	_, err := h.cartSvc.Checkout(ctx, cmd.OwnerID, func(c *cart.Cart) error {
		var err error
		o, err = h.orderSvc.Place(ctx, c, cmd.Customer)
		return err
	})
	if err != nil {
		return nil, err
	}
	if h.metrics != nil {
		h.metrics.OrdersPlaced.Inc()
	}
	return projection.OrderView(o), nil
}

func (h *Handler) cartResult(operation string, c *cart.Cart, err error) (*readmodel.CartReadModel, error) {
	h.record(operation, err)
	if err != nil {
		return nil, err
	}
	return projection.CartView(c), nil
}

func (h *Handler) record(operation string, err error) {
	if h.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, cart.ErrProductUnavailable),
		errors.Is(err, cart.ErrInvalidCoupon),
		errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, catalog.ErrProductNotFound):
		result = "rejected"
	default:
		result = "error"
	}
	h.metrics.CartMutations.WithLabelValues(operation, result).Inc()
}
