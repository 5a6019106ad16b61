package cart

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/pricing"
)

const AggregateType = "Cart"

var (
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidCoupon      = errors.New("invalid coupon code")
	ErrInvalidProduct     = errors.New("product_id is required")
)

// Item is a cart line: the product as it was when first added, plus a quantity.
// 1 <= Quantity <= Stock holds for every item.
type Item struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
	Stock          int             `json:"stock"`
	ThumbnailImage string          `json:"thumbnail_image,omitempty"`
	BrandName      string          `json:"brand_name,omitempty"`
	ModelName      string          `json:"model_name,omitempty"`
	Quantity       int             `json:"quantity"`
}

type Cart struct {
	ID      string          `json:"id"`
	OwnerID string          `json:"owner_id"`
	Items   []Item          `json:"items"` // insertion order
	Coupon  *pricing.Coupon `json:"coupon,omitempty"`
	Version int             `json:"version"`
}

// GetCartID returns the cart ID for an owner (user id or guest session)
func GetCartID(ownerID string) string {
	return "cart-" + ownerID
}

// New returns the empty cart of an owner
func New(ownerID string) *Cart {
	return &Cart{ID: GetCartID(ownerID), OwnerID: ownerID, Items: []Item{}}
}

func (c *Cart) GetID() string   { return c.ID }
func (c *Cart) GetVersion() int { return c.Version }

// Item returns the line for productID
func (c *Cart) Item(productID string) (Item, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i], true
	}
	return Item{}, false
}

// ItemCount is the number of units across all lines
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Lines converts the items for pricing
func (c *Cart) Lines() []pricing.Line {
	lines := make([]pricing.Line, len(c.Items))
	for i, it := range c.Items {
		lines[i] = pricing.Line{UnitPrice: it.SellingPrice, Quantity: it.Quantity}
	}
	return lines
}

// Totals prices the cart with its applied coupon
func (c *Cart) Totals() pricing.Totals {
	return pricing.ComputeTotals(c.Lines(), c.Coupon)
}

func (c *Cart) indexOf(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// decision is the single event a cart command produces
type decision struct {
	eventType string
	data      any
}

// decideAdd adds a new line with quantity 1 or bumps an existing one.
// At the stock ceiling the add is a silent no-op.
func (c *Cart) decideAdd(p catalog.Product, now time.Time) (*decision, error) {
	if p.ID == "" {
		return nil, ErrInvalidProduct
	}
	if existing, ok := c.Item(p.ID); ok {
		if existing.Quantity >= existing.Stock {
			return nil, nil
		}
		return c.quantityDecision(p.ID, existing.Quantity+1, now), nil
	}
	if !p.IsActive {
		return nil, ErrProductUnavailable
	}
	if !p.InStock() {
		return nil, ErrOutOfStock
	}
	return &decision{EventItemAdded, ItemAddedToCart{
		CartID:         c.ID,
		OwnerID:        c.OwnerID,
		ProductID:      p.ID,
		Name:           p.Name,
		SellingPrice:   p.SellingPrice(),
		Stock:          p.Stock,
		ThumbnailImage: p.ThumbnailImage,
		BrandName:      p.BrandName(),
		ModelName:      p.ModelName(),
		AddedAt:        now,
	}}, nil
}

func (c *Cart) decideRemove(productID string, now time.Time) *decision {
	if c.indexOf(productID) < 0 {
		return nil
	}
	return &decision{EventItemRemoved, ItemRemovedFromCart{
		CartID:    c.ID,
		OwnerID:   c.OwnerID,
		ProductID: productID,
		RemovedAt: now,
	}}
}

// decideStep moves a line's quantity by delta, clamped to [1, stock]
func (c *Cart) decideStep(productID string, delta int, now time.Time) *decision {
	it, ok := c.Item(productID)
	if !ok {
		return nil
	}
	next := it.Quantity + delta
	if next < 1 || next > it.Stock {
		return nil
	}
	return c.quantityDecision(productID, next, now)
}

func (c *Cart) quantityDecision(productID string, quantity int, now time.Time) *decision {
	return &decision{EventQuantityChanged, ItemQuantityChanged{
		CartID:    c.ID,
		OwnerID:   c.OwnerID,
		ProductID: productID,
		Quantity:  quantity,
		ChangedAt: now,
	}}
}

// decideClear always empties the cart, even an empty one
func (c *Cart) decideClear(now time.Time) *decision {
	return &decision{EventCartCleared, CartCleared{
		CartID:    c.ID,
		OwnerID:   c.OwnerID,
		ClearedAt: now,
	}}
}

func (c *Cart) decideApplyCoupon(book pricing.CouponBook, code string, now time.Time) (*decision, error) {
	coupon, ok := book.Lookup(code)
	if !ok {
		return nil, ErrInvalidCoupon
	}
	if c.Coupon != nil && *c.Coupon == coupon {
		return nil, nil
	}
	return &decision{EventCouponApplied, CouponApplied{
		CartID:    c.ID,
		OwnerID:   c.OwnerID,
		Code:      coupon.Code,
		Percent:   coupon.Percent,
		AppliedAt: now,
	}}, nil
}

func (c *Cart) decideRemoveCoupon(now time.Time) *decision {
	if c.Coupon == nil {
		return nil
	}
	return &decision{EventCouponRemoved, CouponRemoved{
		CartID:    c.ID,
		OwnerID:   c.OwnerID,
		RemovedAt: now,
	}}
}

// ApplyEvent folds one stored event into the cart
func (c *Cart) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventItemAdded:
		var data ItemAddedToCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.identify(data.CartID, data.OwnerID)
		if c.indexOf(data.ProductID) < 0 {
			c.Items = append(c.Items, Item{
				ProductID:      data.ProductID,
				Name:           data.Name,
				SellingPrice:   data.SellingPrice,
				Stock:          data.Stock,
				ThumbnailImage: data.ThumbnailImage,
				BrandName:      data.BrandName,
				ModelName:      data.ModelName,
				Quantity:       1,
			})
		}
	case EventQuantityChanged:
		var data ItemQuantityChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.identify(data.CartID, data.OwnerID)
		if i := c.indexOf(data.ProductID); i >= 0 {
			c.Items[i].Quantity = data.Quantity
		}
	case EventItemRemoved:
		var data ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.identify(data.CartID, data.OwnerID)
		if i := c.indexOf(data.ProductID); i >= 0 {
			c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
		}
	case EventCartCleared:
		var data CartCleared
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.identify(data.CartID, data.OwnerID)
		c.Items = []Item{}
	case EventCouponApplied:
		var data CouponApplied
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.identify(data.CartID, data.OwnerID)
		c.Coupon = &pricing.Coupon{Code: data.Code, Percent: data.Percent}
	case EventCouponRemoved:
		var data CouponRemoved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.identify(data.CartID, data.OwnerID)
		c.Coupon = nil
	}
	c.Version = event.Version
	return nil
}

func (c *Cart) identify(cartID, ownerID string) {
	if c.ID == "" {
		c.ID = cartID
	}
	if c.OwnerID == "" {
		c.OwnerID = ownerID
	}
}
