// Package projection keeps the cart and order read models current from stored events.
package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/pricing"
	"github.com/example/ec-storefront/internal/readmodel"
)

type Projector struct {
	readStore store.ReadStoreInterface

	mu    sync.Mutex
	carts map[string]*cart.Cart // folded cart state by cart id
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{
		readStore: readStore,
		carts:     make(map[string]*cart.Cart),
	}
}

// HandleEvent consumes one marshalled store.Event. Its signature matches kafka.MessageHandler.
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	return p.Apply(ctx, event)
}

// Apply projects a decoded event
func (p *Projector) Apply(ctx context.Context, event store.Event) error {
	logger.WithContext(ctx).Debug().
		Str("component", "projector").
		Str("event_type", event.EventType).
		Str("aggregate_id", event.AggregateID).
		Int("version", event.Version).
		Msg("projecting event")

	switch event.AggregateType {
	case cart.AggregateType:
		return p.handleCartEvent(event)
	case order.AggregateType:
		return p.handleOrderEvent(event)
	}
	return nil
}

// Replay rebuilds the read models from every stored event
func (p *Projector) Replay(ctx context.Context, es store.EventStoreInterface) (int, error) {
	events, err := es.GetAllEvents(ctx)
	if err != nil {
		return 0, err
	}
	for _, event := range events {
		if err := p.Apply(ctx, event); err != nil {
			logger.Warn(ctx).Err(err).Str("event_id", event.ID).Msg("replay: skipping event")
		}
	}
	return len(events), nil
}

// handleCartEvent folds the event into the projector's copy of the cart.
// Redelivered or out-of-date events (version not newer) are ignored.
func (p *Projector) handleCartEvent(event store.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.carts[event.AggregateID]
	if !ok {
		c = &cart.Cart{ID: event.AggregateID, Items: []cart.Item{}}
	}
	if event.Version <= c.Version {
		return nil
	}
	if err := c.ApplyEvent(event); err != nil {
		return err
	}
	p.carts[event.AggregateID] = c
	p.readStore.Set(store.CollectionCarts, c.ID, CartView(c))
	return nil
}

func (p *Projector) handleOrderEvent(event store.Event) error {
	var o order.Order
	if err := o.ApplyEvent(event); err != nil {
		return err
	}
	if o.ID == "" {
		return nil
	}
	p.readStore.Set(store.CollectionOrders, o.ID, OrderView(&o))
	return nil
}

// OrderView builds the read model of a placed order
func OrderView(o *order.Order) *readmodel.OrderReadModel {
	items := make([]readmodel.OrderItemReadModel, len(o.Items))
	for i, it := range o.Items {
		items[i] = readmodel.OrderItemReadModel{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Quantity:  it.Quantity,
		}
	}
	return &readmodel.OrderReadModel{
		ID:           o.ID,
		OwnerID:      o.OwnerID,
		BackendID:    o.BackendID,
		Items:        items,
		CustomerName: o.Customer.Name,
		CouponCode:   o.CouponCode,
		Totals:       o.Totals.Display(),
		Status:       o.Status,
		PlacedAt:     o.PlacedAt,
	}
}

// CartView builds the read model of a cart, totals included
func CartView(c *cart.Cart) *readmodel.CartReadModel {
	items := make([]readmodel.CartItemReadModel, len(c.Items))
	for i, it := range c.Items {
		items[i] = readmodel.CartItemReadModel{
			ProductID:      it.ProductID,
			Name:           it.Name,
			SellingPrice:   it.SellingPrice.StringFixed(2),
			Quantity:       it.Quantity,
			Stock:          it.Stock,
			LineTotal:      it.SellingPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).StringFixed(2),
			ThumbnailImage: it.ThumbnailImage,
			BrandName:      it.BrandName,
			ModelName:      it.ModelName,
		}
	}
	couponCode := ""
	if c.Coupon != nil {
		couponCode = c.Coupon.Code
	}
	return &readmodel.CartReadModel{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		Items:      items,
		CouponCode: couponCode,
		ItemCount:  c.ItemCount(),
		Totals:     pricing.ComputeTotals(c.Lines(), c.Coupon).Display(),
		Version:    c.Version,
	}
}

// InlinePublisher delivers events straight to a projector, in-process
type InlinePublisher struct {
	Projector *Projector
}

func (ip *InlinePublisher) Publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return ip.Projector.HandleEvent(ctx, []byte(key), data)
}
