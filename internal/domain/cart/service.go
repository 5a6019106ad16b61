package cart

import (
	"context"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/domain/aggregate"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/pricing"
)

// Service runs cart commands: load, decide, append at most one event.
type Service struct {
	eventStore store.EventStoreInterface
	coupons    pricing.CouponBook
	now        func() time.Time

	locks sync.Map // cartID -> *sync.Mutex
}

func NewService(es store.EventStoreInterface, coupons pricing.CouponBook) *Service {
	if coupons == nil {
		coupons = pricing.DefaultCoupons
	}
	return &Service{eventStore: es, coupons: coupons, now: time.Now}
}

// Get loads the owner's cart; an owner without events gets an empty cart
func (s *Service) Get(ctx context.Context, ownerID string) (*Cart, error) {
	id := GetCartID(ownerID)
	c, found, err := aggregate.LoadAggregate(ctx, s.eventStore, id, func() *Cart { return New(ownerID) })
	if err != nil {
		return nil, err
	}
	if !found {
		return New(ownerID), nil
	}
	return c, nil
}

func (s *Service) AddItem(ctx context.Context, ownerID string, product catalog.Product) (*Cart, error) {
	return s.mutate(ctx, ownerID, func(c *Cart, now time.Time) (*decision, error) {
		return c.decideAdd(product, now)
	})
}

func (s *Service) RemoveItem(ctx context.Context, ownerID, productID string) (*Cart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	return s.mutate(ctx, ownerID, func(c *Cart, now time.Time) (*decision, error) {
		return c.decideRemove(productID, now), nil
	})
}

func (s *Service) IncrementQuantity(ctx context.Context, ownerID, productID string) (*Cart, error) {
	return s.mutate(ctx, ownerID, func(c *Cart, now time.Time) (*decision, error) {
		return c.decideStep(productID, 1, now), nil
	})
}

func (s *Service) DecrementQuantity(ctx context.Context, ownerID, productID string) (*Cart, error) {
	return s.mutate(ctx, ownerID, func(c *Cart, now time.Time) (*decision, error) {
		return c.decideStep(productID, -1, now), nil
	})
}

func (s *Service) Clear(ctx context.Context, ownerID string) (*Cart, error) {
	return s.mutate(ctx, ownerID, func(c *Cart, now time.Time) (*decision, error) {
		return c.decideClear(now), nil
	})
}

func (s *Service) ApplyCoupon(ctx context.Context, ownerID, code string) (*Cart, error) {
	return s.mutate(ctx, ownerID, func(c *Cart, now time.Time) (*decision, error) {
		return c.decideApplyCoupon(s.coupons, code, now)
	})
}

func (s *Service) RemoveCoupon(ctx context.Context, ownerID string) (*Cart, error) {
	return s.mutate(ctx, ownerID, func(c *Cart, now time.Time) (*decision, error) {
		return c.decideRemoveCoupon(now), nil
	})
}

// Checkout runs place on the owner's cart and then clears it, holding the
// cart lock throughout. A concurrent checkout sees the cleared cart and a
// concurrent add lands after the clear. A failed clear is logged; place
// has already succeeded.
func (s *Service) Checkout(ctx context.Context, ownerID string, place func(*Cart) error) (*Cart, error) {
	id := GetCartID(ownerID)
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := place(c); err != nil {
		return nil, err
	}

	d := c.decideClear(s.now())
	if _, err := aggregate.Commit(ctx, s.eventStore, c, AggregateType, d.eventType, d.data); err != nil {
		logger.Error(ctx).Str("component", "cart").Str("cart_id", id).Err(err).Msg("clear cart after checkout")
	}
	return c, nil
}

func (s *Service) mutate(ctx context.Context, ownerID string, decide func(*Cart, time.Time) (*decision, error)) (*Cart, error) {
	id := GetCartID(ownerID)
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	d, err := decide(c, s.now())
	if err != nil {
		return nil, err
	}
	if d == nil {
		return c, nil
	}

	if _, err := aggregate.Commit(ctx, s.eventStore, c, AggregateType, d.eventType, d.data); err != nil {
		logger.Error(ctx).Str("component", "cart").Str("cart_id", id).Err(err).Msg("append cart event")
		return nil, err
	}
	return c, nil
}

func (s *Service) lock(cartID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(cartID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
